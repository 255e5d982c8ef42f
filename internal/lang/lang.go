package lang

import (
	"fmt"
	"log"
)

var lang = "en"

func SetupLang(language string) {
	if language != "" {
		lang = language
	}
}

func GetMessage(id MessageID, args ...interface{}) string {
	if m, ok := messages[id]; ok {
		if msg, ok := m[lang]; ok {
			return fmt.Sprintf(msg, args...)
		}
		if msg, ok := m["en"]; ok {
			return fmt.Sprintf(msg, args...)
		}
	}
	log.Printf("Message not found for ID: %s", id)
	return "Message not found"
}
