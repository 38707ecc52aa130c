package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
)

// paymentRequest mirrors what the back-office gateway expects.
type paymentRequest struct {
	TenantID     string  `json:"tenant_id"`
	Amount       float64 `json:"amount"`
	PaymentDate  string  `json:"payment_date"`
	Method       string  `json:"method"`
	Reference    string  `json:"reference,omitempty"`
	PayerName    string  `json:"payer_name"`
	PayerContact string  `json:"payer_contact"`
	NotifyPayer  bool    `json:"notify_payer"`
}

var methods = []string{"MPESA", "BANK_TRANSFER", "CHEQUE", "CASH"}

func main() {
	// 1. Setting up flags
	targetURL := flag.String("target", "http://localhost:8080/api/v1/payments", "Target URL for submitting payments")
	rps := flag.Int("rps", 20, "Requests per second")
	token := flag.String("token", "", "Bearer token for the protected API")
	flag.Parse()

	log.Printf("Starting generator: target=%s, rps=%d\n", *targetURL, *rps)

	// 2. Managing the request frequency via ticker
	ticker := time.NewTicker(time.Second / time.Duration(*rps))
	defer ticker.Stop()

	// 3. Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Main loop
	for {
		select {
		case <-ticker.C:
			// Send in a goroutine so as not to block the ticker
			go sendRequest(*targetURL, *token)
		case <-ctx.Done():
			log.Println("Shutting down generator...")
			return
		}
	}
}

func sendRequest(url, token string) {
	method := methods[rand.Intn(len(methods))]
	payload := paymentRequest{
		TenantID:     uuid.New().String(),
		Amount:       float64(rand.Intn(50000) + 100),
		PaymentDate:  time.Now().Format("2006-01-02"),
		Method:       method,
		PayerName:    faker.Name(),
		PayerContact: faker.Phonenumber(),
		NotifyPayer:  rand.Intn(2) == 0,
	}
	if method == "MPESA" {
		payload.Reference = mpesaReference()
	} else if method != "CASH" {
		payload.Reference = faker.UUIDDigit()[:12]
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal payload: %v", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		log.Printf("failed to create request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	log.Printf("submitted %s payment of KES %.0f -> %s", payload.Method, payload.Amount, resp.Status)
}

// mpesaReference fakes a 10-character uppercase M-PESA receipt code.
func mpesaReference() string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ0123456789"
	code := make([]byte, 10)
	for i := range code {
		code[i] = charset[rand.Intn(len(charset))]
	}
	return string(code)
}
