package http

import (
	"encoding/json"
	"net/http"
	"time"

	"billbook/internal/access"
	"billbook/internal/core"
	"billbook/internal/services"
)

// Response is the envelope of every API response.
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Error: msg})
}

type sourceDTO struct {
	Sample bool          `json:"sample"`
	Reason access.Reason `json:"reason"`
}

func sourceOf(s services.Source) sourceDTO {
	return sourceDTO{Sample: s.Sample, Reason: s.Reason}
}

type transactionDTO struct {
	ID          string     `json:"id"`
	Account     string     `json:"account"`
	Amount      string     `json:"amount"`
	Date        string     `json:"date"`
	Description *string    `json:"description"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	Category    string     `json:"category"`
	DateLabel   string     `json:"date_label,omitempty"`
}

func transactionOf(tx core.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:          tx.ID,
		Account:     tx.Account,
		Amount:      core.FormatAmount(tx.Amount),
		Date:        tx.Date,
		Description: tx.Description,
		Category:    tx.Category(),
	}
	if !tx.CreatedAt.IsZero() {
		t := tx.CreatedAt.UTC()
		dto.CreatedAt = &t
	}
	return dto
}

func rowsOf(rows []services.TransactionRow) []transactionDTO {
	out := make([]transactionDTO, 0, len(rows))
	for _, r := range rows {
		dto := transactionOf(r.Transaction)
		dto.DateLabel = r.DateLabel
		out = append(out, dto)
	}
	return out
}

type rowsDTO struct {
	sourceDTO
	Transactions []transactionDTO `json:"transactions"`
	Total        string           `json:"total"`
}

type monthDTO struct {
	Label  string `json:"label"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Amount string `json:"amount"`
}

func monthsOf(in []core.MonthAmount) []monthDTO {
	out := make([]monthDTO, 0, len(in))
	for _, m := range in {
		out = append(out, monthDTO{Label: m.Label, Year: m.Year, Month: m.Month, Amount: core.FormatAmount(m.Amount)})
	}
	return out
}

type categoryDTO struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

func categoriesOf(in []core.CategoryAmount) []categoryDTO {
	out := make([]categoryDTO, 0, len(in))
	for _, c := range in {
		out = append(out, categoryDTO{Name: c.Name, Amount: core.FormatAmount(c.Amount)})
	}
	return out
}

type overviewDTO struct {
	Total         string  `json:"total"`
	CurrentMonth  string  `json:"current_month"`
	PreviousMonth string  `json:"previous_month"`
	ChangePercent *string `json:"change_percent"`
	Count         int     `json:"count"`
}

func overviewOf(o core.Overview) overviewDTO {
	dto := overviewDTO{
		Total:         core.FormatAmount(o.Total),
		CurrentMonth:  core.FormatAmount(o.CurrentMonth),
		PreviousMonth: core.FormatAmount(o.PreviousMonth),
		Count:         o.Count,
	}
	if o.ChangePercent != nil {
		s := o.ChangePercent.StringFixed(1)
		dto.ChangePercent = &s
	}
	return dto
}

type dashboardDTO struct {
	sourceDTO
	Overview overviewDTO      `json:"overview"`
	Recent   []transactionDTO `json:"recent"`
	Preview  []monthDTO       `json:"preview"`
}

type analyticsDTO struct {
	sourceDTO
	Months     []monthDTO    `json:"months"`
	Categories []categoryDTO `json:"categories"`
}

type overviewViewDTO struct {
	sourceDTO
	overviewDTO
}

type sessionDTO struct {
	Valid     bool       `json:"valid"`
	ExpiresAt *time.Time `json:"expires_at"`
}
