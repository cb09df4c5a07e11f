// Команда применяет схему базы данных и завершается.
package main

import (
	"log"

	"defense_queue/internal/config"
	"defense_queue/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Ошибка конфигурации: ", err)
	}

	db := storage.ConnectDatabase(cfg.DB)
	if err := storage.Migrate(db); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}
	log.Println("Миграция выполнена")
}
