package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-roomchat/backend/chat"
	"go-roomchat/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RoomDirectory 是 chat.RoomDirectory 的 MongoDB 實作
// 成員名單不另外維護：GetRoom 以 roomId 欄位即時查詢使用者組出快照，
// 連續快速進出時快照可能短暫落後，由下一次 ROOM_ENTERED 刷新補上
type RoomDirectory struct {
	rooms *mongo.Collection
	users *mongo.Collection
}

// NewRoomDirectory 創建並返回一個新的 RoomDirectory 實例
func NewRoomDirectory(db *mongo.Database) *RoomDirectory {
	return &RoomDirectory{
		rooms: db.Collection("rooms"),
		users: db.Collection("users"),
	}
}

// ListRooms 返回全部聊天室（不含成員快照）
func (d *RoomDirectory) ListRooms(ctx context.Context) ([]models.Room, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := d.rooms.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer cursor.Close(ctx)

	var rooms []models.Room
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}

// GetRoom 返回聊天室與當下的成員快照
func (d *RoomDirectory) GetRoom(ctx context.Context, roomID primitive.ObjectID) (models.Room, error) {
	var room models.Room
	err := d.rooms.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Room{}, chat.ErrRoomNotFound
	}
	if err != nil {
		return models.Room{}, fmt.Errorf("find room: %w", err)
	}

	members, err := d.membersOf(ctx, roomID)
	if err != nil {
		return models.Room{}, err
	}
	room.Members = members
	return room, nil
}

// CreateRoom 建立一個新的聊天室；沒有成員的聊天室也是合法的
func (d *RoomDirectory) CreateRoom(ctx context.Context, name string) (models.Room, error) {
	room := models.Room{
		ID:        primitive.NewObjectID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := d.rooms.InsertOne(ctx, room); err != nil {
		return models.Room{}, fmt.Errorf("insert room: %w", err)
	}
	return room, nil
}

// SetUserRoom 覆寫使用者目前所在的聊天室，是成員關係唯一的寫入路徑
// 同一使用者的並發進入採 last-write-wins，不做 compare-and-swap
func (d *RoomDirectory) SetUserRoom(ctx context.Context, userID, roomID primitive.ObjectID) error {
	count, err := d.rooms.CountDocuments(ctx, bson.M{"_id": roomID})
	if err != nil {
		return fmt.Errorf("check room: %w", err)
	}
	if count == 0 {
		return chat.ErrRoomNotFound
	}

	result, err := d.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"roomId": roomID}},
	)
	if err != nil {
		return fmt.Errorf("set user room: %w", err)
	}
	if result.MatchedCount == 0 {
		return chat.ErrUserNotFound
	}
	return nil
}

// membersOf 查詢 roomId 等於指定聊天室的使用者
func (d *RoomDirectory) membersOf(ctx context.Context, roomID primitive.ObjectID) ([]models.User, error) {
	cursor, err := d.users.Find(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return nil, fmt.Errorf("list room members: %w", err)
	}
	defer cursor.Close(ctx)

	var members []models.User
	if err = cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("decode room members: %w", err)
	}
	return members, nil
}
