package main

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"time"

	"koinonia.church/koinonia/web/middlewares"
)

func main() {
	secret, err := base64.StdEncoding.DecodeString(os.Getenv("KOINONIA_AUTH_SECRET"))
	if err != nil {
		log.Fatal("failed to decode KOINONIA_AUTH_SECRET:", err)
	}

	token, err := middlewares.CreateJWT("kiosk-01", secret, 12*time.Hour)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
