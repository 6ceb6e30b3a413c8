package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/punchamoorthee/cardfees/internal/domain"
	"github.com/punchamoorthee/cardfees/internal/payment"
)

var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
	secret      string
)

var (
	totalRequests uint64
	success200    uint64 // Verified (first or replay)
	success201    uint64 // Created
	fail401       uint64 // Rejected signature
	fail422       uint64
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration (calculate workload)")
	flag.StringVar(&workload, "workload", "calculate", "Workload type: calculate | verify-race")
	flag.StringVar(&secret, "secret", os.Getenv("PAYMENT_KEY_SECRET"), "Gateway key secret used to sign verify-race payloads")
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	client := &http.Client{Timeout: 5 * time.Second}
	start := time.Now()
	extra := map[string]interface{}{}

	switch workload {
	case "calculate":
		var wg sync.WaitGroup
		wg.Add(concurrency)
		for i := 0; i < concurrency; i++ {
			go calculateWorker(&wg, client, start)
		}
		wg.Wait()
	case "verify-race":
		if secret == "" {
			log.Fatal("verify-race needs -secret or PAYMENT_KEY_SECRET")
		}
		status, err := verifyRace(client)
		if err != nil {
			log.Fatal(err)
		}
		extra["final_status"] = status
	default:
		log.Fatalf("unknown workload %q", workload)
	}

	printResults(time.Since(start), extra)
}

func calculateWorker(wg *sync.WaitGroup, client *http.Client, start time.Time) {
	defer wg.Done()
	for time.Since(start) < duration {
		post(client, "/api/v1/calculations", randomCalculation())
	}
}

// verifyRace creates one calculation, raises its unlock order and fires the
// same signed verification from every worker at once. Every call should
// answer 200 and the record must end up COMPLETED exactly once.
func verifyRace(client *http.Client) (string, error) {
	resp, body := post(client, "/api/v1/calculations", randomCalculation())
	if resp == nil || resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("seed calculation failed: %s", body)
	}
	var created struct {
		TransactionID string `json:"transactionId"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("seed calculation response: %w", err)
	}

	resp, body = post(client, "/api/v1/payments/orders", map[string]string{"transactionId": created.TransactionID})
	if resp == nil || resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("order creation failed: %s", body)
	}
	var order struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(body, &order); err != nil {
		return "", fmt.Errorf("order response: %w", err)
	}

	orderID := order.OrderID
	paymentID := fmt.Sprintf("pay_bench_%d", time.Now().UnixNano())
	v := domain.PaymentVerification{
		OrderID:       orderID,
		PaymentID:     paymentID,
		Signature:     payment.Sign(secret, orderID, paymentID),
		TransactionID: created.TransactionID,
	}

	var ready, wg sync.WaitGroup
	gate := make(chan struct{})
	ready.Add(concurrency)
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			ready.Done()
			<-gate
			post(client, "/api/v1/payments/verify", v)
		}()
	}
	ready.Wait()
	close(gate)
	wg.Wait()

	res, err := client.Get(targetURL + "/api/v1/calculations/" + created.TransactionID)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	var got struct {
		PaymentStatus string `json:"paymentStatus"`
	}
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		return "", err
	}
	return got.PaymentStatus, nil
}

func post(client *http.Client, path string, payload interface{}) (*http.Response, []byte) {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, targetURL+path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddUint64(&failOther, 1)
		return nil, []byte(err.Error())
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)

	atomic.AddUint64(&totalRequests, 1)
	switch resp.StatusCode {
	case 201:
		atomic.AddUint64(&success201, 1)
	case 200:
		atomic.AddUint64(&success200, 1)
	case 401:
		atomic.AddUint64(&fail401, 1)
	case 422:
		atomic.AddUint64(&fail422, 1)
	default:
		atomic.AddUint64(&failOther, 1)
	}
	return resp, buf.Bytes()
}

func randomCalculation() map[string]interface{} {
	due := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	paid := due.AddDate(0, 0, rand.Intn(40)-10)

	n := rand.Intn(5) + 1
	txs := make([]map[string]interface{}, n)
	outstanding := 0
	for i := range txs {
		amount := rand.Intn(20000) + 100
		outstanding += amount
		txs[i] = map[string]interface{}{
			"amount": amount,
			"date":   due.AddDate(0, 0, -rand.Intn(30)-1).Format(domain.DateLayout),
		}
	}

	return map[string]interface{}{
		"bank":              domain.Banks[rand.Intn(len(domain.Banks))],
		"outstandingAmount": outstanding + rand.Intn(5000),
		"minimumDueAmount":  outstanding / 20,
		"minimumDuePaid":    rand.Float32() < 0.3,
		"dueDate":           due.Format(domain.DateLayout),
		"paymentDate":       paid.Format(domain.DateLayout),
		"transactions":      txs,
	}
}

func printResults(d time.Duration, extra map[string]interface{}) {
	total := atomic.LoadUint64(&totalRequests)
	s201 := atomic.LoadUint64(&success201)
	s200 := atomic.LoadUint64(&success200)
	f401 := atomic.LoadUint64(&fail401)
	f422 := atomic.LoadUint64(&fail422)
	fErr := atomic.LoadUint64(&failOther)

	results := map[string]interface{}{
		"workload":         workload,
		"duration_sec":     d.Seconds(),
		"total_requests":   total,
		"throughput_tps":   float64(total) / d.Seconds(),
		"success_created":  s201,
		"success_verified": s200,
		"rejected_401":     f401,
		"rejected_422":     f422,
		"errors":           fErr,
	}
	for k, v := range extra {
		results[k] = v
	}

	// Print JSON for the python plotter to consume
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	filename := fmt.Sprintf("results_%s.json", workload)
	file, err := os.Create(filename)
	if err != nil {
		log.Printf("could not save results: %v", err)
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
