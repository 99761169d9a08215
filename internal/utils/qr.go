package utils

import (
	"encoding/base64"
	"fmt"
	"os"

	"mesa_back_end/internal/models"

	"github.com/skip2/go-qrcode"
)

// GenerateOrderQR encode l'URL de confirmation invité d'une commande en QR
// PNG base64, prêt à mettre dans un <img src="...">
func GenerateOrderQR(order models.Order) (string, error) {
	baseURL := os.Getenv("FRONTEND_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5173"
	}

	url := fmt.Sprintf("%s/orders/confirmation/%s?t=%s", baseURL, order.ID.Hex(), order.PublicToken)

	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
