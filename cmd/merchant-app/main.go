// Command merchant-app is a terminal stand-in for the merchant mobile app.
// It logs in, shows the connection status and drives the authorization flow
// through the session orchestrator.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/stagepay/partner-connect/internal/client"
	"github.com/stagepay/partner-connect/internal/core/domain"
)

func main() {
	var (
		baseURL  = flag.String("server", "http://localhost:8080", "partner-connect server URL")
		email    = flag.String("email", "steyn.janus@merchant.example", "merchant email")
		password = flag.String("password", "password", "merchant password")
	)
	flag.Parse()

	ctx := context.Background()

	login, err := checkLogin(ctx, *baseURL, *email, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	fmt.Printf("Logged in as %s (%s)\n", login.UserData.Name, login.UserData.ID)

	api := client.NewAPIClient(*baseURL)
	orchestrator := client.NewOrchestrator(client.OrchestratorConfig{
		API:        api,
		Session:    &terminalSession{in: bufio.NewReader(os.Stdin)},
		MerchantID: login.UserData.ID,
		OnChange: func(s client.State) {
			fmt.Printf("  -> %s\n", s)
		},
	})

	state, err := orchestrator.RefreshStatus(ctx)
	if err != nil {
		log.Fatalf("Status query failed: %v", err)
	}

	if state == client.StateConnected {
		fmt.Println("Payment account is connected.")
		return
	}

	fmt.Println("Payment account is not connected. Starting authorization...")
	state, err = orchestrator.BeginConnection(ctx)
	if err != nil {
		log.Fatalf("Authorization failed: %v", err)
	}

	switch state {
	case client.StateConnected:
		fmt.Println("Payment account connected.")
	case client.StateNotConnected:
		fmt.Println("Still not connected. Run again to retry.")
	default:
		fmt.Printf("Ended in state %s\n", state)
	}
}

// checkLogin posts the credentials to the backend.
func checkLogin(ctx context.Context, baseURL, email, password string) (*domain.LoginResponse, error) {
	body, err := json.Marshal(domain.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/checkLogin", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := &http.Client{Timeout: 30 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var login domain.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return nil, err
	}
	if !login.Success || login.UserData == nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return &login, nil
}

// terminalSession is an AuthSession that asks the user to open the URL in
// their own browser, since a CLI cannot embed one.
type terminalSession struct {
	in *bufio.Reader
}

func (s *terminalSession) Open(ctx context.Context, authURL string) (client.SessionOutcome, error) {
	fmt.Println("\nOpen this URL in your browser to authorize:")
	fmt.Printf("\n  %s\n\n", authURL)
	fmt.Print("Press Enter once done, or type 'cancel': ")

	line, err := s.in.ReadString('\n')
	if err != nil {
		return client.SessionCanceled, err
	}
	if strings.TrimSpace(line) == "cancel" {
		return client.SessionCanceled, nil
	}
	return client.SessionCompleted, nil
}
