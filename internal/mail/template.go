package mail

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<html>
<body>
<h2>Order confirmed</h2>
<p>Order {{.SessionID}} &mdash; {{.Date}}</p>
<table>
{{range .Rows}}<tr><td>{{.Description}}</td><td>{{.Quantity}}</td><td>{{.Amount}}</td></tr>
{{end}}</table>
<p><strong>Total: {{.Total}}</strong></p>
</body>
</html>
`))

type confirmationRow struct {
	Description string
	Quantity    int64
	Amount      string
}

type confirmationData struct {
	SessionID string
	Date      string
	Rows      []confirmationRow
	Total     string
}

// RenderConfirmation builds the confirmation email body from an order
// record. All substitution happens here, before anything leaves the process.
func RenderConfirmation(rec *domain.OrderRecord) (string, error) {
	data := confirmationData{
		SessionID: rec.SessionID,
		Date:      rec.RecordedAt.Format(time.DateOnly),
		Total:     FormatAmount(rec.AmountTotal, rec.Currency),
	}
	for _, item := range rec.Items {
		data.Rows = append(data.Rows, confirmationRow{
			Description: item.Description,
			Quantity:    item.Quantity,
			Amount:      FormatAmount(item.AmountTotal, rec.Currency),
		})
	}

	var b strings.Builder
	if err := confirmationTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return b.String(), nil
}

// FormatAmount renders a minor-unit amount as "GBP 35.00".
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s %s%d.%02d", strings.ToUpper(currency), sign, minor/100, minor%100)
}
