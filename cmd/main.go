package main

import (
	"log"

	_ "gw-bank-transfer/docs"
	"gw-bank-transfer/internal/app"
)

// @title           Bank Transfer API
// @version         1.0
// @description     API переводов между счетами с антифрод-оценкой и ограничениями после восстановления доступа
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app, err := app.NewApp()
	if err != nil {
		log.Fatalf("Ошибка создания приложения: %v", err)
	}

	app.BuildAccountLayer()
	if err := app.BuildTransferLayer(); err != nil {
		log.Fatalf("Ошибка сборки слоя переводов: %v", err)
	}
	if err := app.BuildAdminLayer(); err != nil {
		log.Fatalf("Ошибка сборки административного слоя: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("Ошибка при работе приложения: %v", err)
	}
}
