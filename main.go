package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-roomchat/backend/cache"
	"go-roomchat/backend/chat"
	"go-roomchat/backend/config"
	"go-roomchat/backend/database"
	"go-roomchat/backend/eventbus"
	"go-roomchat/backend/handlers"
	"go-roomchat/backend/middleware"
	"go-roomchat/backend/websocket"

	"github.com/gorilla/mux"
	"github.com/rs/cors" // 引入 CORS 庫
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.Connect(cfg.MongoDBURI, cfg.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer database.Disconnect(db)

	presenceCache, err := cache.NewPresence(cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer presenceCache.Close()

	// 事件匯流排由這裡建構，以參考傳入每個需要發佈或訂閱的元件
	bus := eventbus.New()

	users := database.NewUserRepository(db)
	directory := database.NewRoomDirectory(db)
	store := database.NewMessageStore(db)

	coordinator := chat.NewCoordinator(directory, bus)
	distributor := chat.NewDistributor(store, bus)

	authHandler := handlers.NewAuthHandler(users, cfg)
	roomHandler := handlers.NewRoomHandler(directory, coordinator)
	messageHandler := handlers.NewMessageHandler(distributor)
	userHandler := handlers.NewUserHandler(users, presenceCache)
	gateway := websocket.NewGateway(bus, presenceCache)

	router := mux.NewRouter()

	// 健康檢查路由
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Backend is running!")
	}).Methods("GET")

	// 身分相關路由（不需要 token）
	router.HandleFunc("/register", authHandler.Register).Methods("POST")
	router.HandleFunc("/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/auth/google", authHandler.GoogleLogin).Methods("GET")
	router.HandleFunc("/auth/google/callback", authHandler.GoogleCallback).Methods("GET")

	// 其餘路由都需要有效的 JWT
	authed := router.NewRoute().Subrouter()
	authed.Use(middleware.JWTMiddleware(cfg.JWTSecret))
	authed.HandleFunc("/rooms", roomHandler.ListRooms).Methods("GET")
	authed.HandleFunc("/rooms", roomHandler.CreateRoom).Methods("POST")
	authed.HandleFunc("/rooms/{id}", roomHandler.GetRoom).Methods("GET")
	authed.HandleFunc("/rooms/{id}/enter", roomHandler.EnterRoom).Methods("POST")
	authed.HandleFunc("/messages", messageHandler.ListMessages).Methods("GET")
	authed.HandleFunc("/messages", messageHandler.SendMessage).Methods("POST")
	authed.HandleFunc("/users", userHandler.ListUsers).Methods("GET")
	authed.HandleFunc("/ws", gateway.HandleConnection).Methods("GET")

	// 設置 CORS 中介軟體
	// 實際生產環境中，你應該將 AllowedOrigins 限制為你的前端網域
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", serverAddr, err)
		}
	}()

	// 當按下 Ctrl+C，程式會收到 SIGINT
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %s, shutting down server...", sig)

	// 最多等30秒關閉，避免資料損壞，請求中斷
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully.")
}
