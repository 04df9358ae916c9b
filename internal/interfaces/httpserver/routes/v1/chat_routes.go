package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/heymaaz/t3.chat.cloneathon/internal/interfaces/httpserver/handlers"
)

func registerChatRoutes(router gin.IRoutes, chat *handlers.ChatHandler, file *handlers.FileHandler) {
	router.POST("/chat", chat.Submit)

	router.GET("/conversations", chat.List)
	router.GET("/conversations/:conversation_id", chat.Get)
	router.DELETE("/conversations/:conversation_id", chat.Delete)
	router.GET("/conversations/:conversation_id/messages", chat.ListMessages)
	router.GET("/conversations/:conversation_id/citations/:file_id", chat.ResolveCitation)
	router.POST("/conversations/:conversation_id/files", file.Upload)
}

func registerModelRoutes(router gin.IRoutes, model *handlers.ModelHandler) {
	router.GET("/models", model.List)
}
