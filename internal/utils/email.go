package utils

import (
	"fmt"
	"log"
	"os"

	"mesa_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

// SendEmail envoie un email HTML via le SMTP configuré
func SendEmail(to, subject, htmlBody string) error {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return fmt.Errorf("SMTP_HOST non configuré")
	}

	msg := mail.NewMsg()

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@mesa.shop"
	}
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(host,
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// SendOrderConfirmationEmail envoie la confirmation de commande au client,
// avec un QR code vers la page de confirmation invité.
func SendOrderConfirmationEmail(order models.Order) error {
	subject := fmt.Sprintf("✅ Confirmation de votre commande %s - Mesa", order.OrderNumber)
	return SendEmail(order.Email, subject, GenerateOrderConfirmationHTML(order))
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(order models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>$%.2f</td>
				<td>$%.2f</td>
			</tr>`, item.Name, item.Qty, item.Price, item.Price*float64(item.Qty))
	}

	qrHTML := ""
	if qr, err := GenerateOrderQR(order); err == nil {
		qrHTML = fmt.Sprintf(`
			<p style="text-align: center;">
				<img src="%s" alt="QR commande" width="160" height="160" />
				<br/><span style="color: #666; font-size: 12px;">Scannez pour suivre votre commande</span>
			</p>`, qr)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande %s</h2>
		<p>Bonjour %s,</p>
		<p>Merci pour votre commande ! Voici le récapitulatif :</p>
		<table style="width: 100%%; border-collapse: collapse;" border="1" cellpadding="8">
			<tr style="background-color: #f0f0f0;">
				<th>Article</th><th>Qté</th><th>Prix unitaire</th><th>Total</th>
			</tr>
			%s
		</table>
		<p style="text-align: right; font-size: 18px;"><strong>Total : $%.2f</strong></p>
		%s
		<p style="color: #999; font-size: 12px;">Cet email a été envoyé automatiquement, merci de ne pas y répondre.</p>
	</div>
</body>
</html>
`, order.OrderNumber, order.ShippingAddress.Name, itemsHTML, order.Total, qrHTML)
}

// SendOrderStatusEmail notifie le client d'un changement de statut
func SendOrderStatusEmail(order models.Order, newStatus string) error {
	subject := getStatusEmailSubject(newStatus)
	html := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Mise à jour de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Mise à jour de votre commande %s</h2>
		<p>%s</p>
		<p style="text-align: right; font-size: 16px;"><strong>Montant : $%.2f</strong></p>
	</div>
</body>
</html>
`, order.OrderNumber, getStatusMessage(newStatus), order.Total)

	if err := SendEmail(order.Email, subject, html); err != nil {
		return err
	}

	log.Printf("📧 Email de statut envoyé: %s → %s", newStatus, order.Email)
	return nil
}

func getStatusEmailSubject(status string) string {
	switch status {
	case models.StatusPaid:
		return "✅ Paiement confirmé - Mesa"
	case models.StatusShipped:
		return "📦 Votre commande a été expédiée - Mesa"
	case models.StatusCompleted:
		return "🎉 Votre commande est terminée - Mesa"
	case models.StatusCancelled:
		return "❌ Commande annulée - Mesa"
	case models.StatusFailed:
		return "⚠️ Problème de paiement - Mesa"
	default:
		return "📋 Mise à jour de votre commande - Mesa"
	}
}

func getStatusMessage(status string) string {
	switch status {
	case models.StatusPaid:
		return "Votre paiement a été confirmé avec succès. Nous préparons votre commande."
	case models.StatusShipped:
		return "Bonne nouvelle ! Votre commande a été expédiée et est en route vers vous."
	case models.StatusCompleted:
		return "Votre commande est terminée. Nous espérons que vous en êtes satisfait !"
	case models.StatusCancelled:
		return "Votre commande a été annulée. Si vous avez des questions, n'hésitez pas à nous contacter."
	case models.StatusFailed:
		return "Le paiement de votre commande a échoué. Vous pouvez réessayer depuis votre panier."
	default:
		return "Le statut de votre commande a été mis à jour."
	}
}
