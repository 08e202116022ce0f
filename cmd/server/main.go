package main

import (
	"os"

	"pagechat/backend/internal/app"
)

// @title           PageChat API
// @version         1.0
// @description     Backend for the PageChat side panel: the active chat session, streamed replies grounded in the open page, and the conversation history.
// @host            localhost:3000
// @BasePath        /api
func main() {
	os.Exit(app.Run())
}
