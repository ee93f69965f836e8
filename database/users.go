package database

import (
	"context"
	"errors"
	"fmt"

	"go-roomchat/backend/chat"
	"go-roomchat/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository 負責使用者紀錄的存取，供身分相關的 handler 使用
// 成員關係（roomId 欄位）的寫入不在這裡，見 RoomDirectory.SetUserRoom
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository 創建並返回一個新的 UserRepository 實例
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{users: db.Collection("users")}
}

// Create 新增一個使用者；Email 重複時返回 chat.ErrEmailTaken
func (r *UserRepository) Create(ctx context.Context, email, name, passwordHash string) (models.User, error) {
	user := models.User{
		ID:       primitive.NewObjectID(),
		Email:    email,
		Name:     name,
		Password: passwordHash,
	}
	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, chat.ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// FindByEmail 依 Email 查詢使用者
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, chat.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

// FindByID 依 ID 查詢使用者
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, chat.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

// List 返回全部使用者
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	cursor, err := r.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}
