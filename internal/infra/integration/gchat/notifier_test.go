package gchat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lwai/timeback-onboarding/internal/usecase"
)

func captureServer(t *testing.T, texts *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg message
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		*texts = append(*texts, msg.Text)
	}))
}

func fixedNotifier(server *httptest.Server) *Notifier {
	n := NewNotifier(NewClient(server.URL))
	n.Now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return n
}

func TestNotifyStart(t *testing.T) {
	var texts []string
	server := captureServer(t, &texts)
	defer server.Close()

	err := fixedNotifier(server).NotifyStart(context.Background(), 7)

	assert.NoError(t, err)
	assert.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Started")
	assert.Contains(t, texts[0], "7 lead(s)")
}

func TestNotifyComplete(t *testing.T) {
	var texts []string
	server := captureServer(t, &texts)
	defer server.Close()

	summary := usecase.Summary{
		TotalLeads:      5,
		Eligible:        2,
		AccountsCreated: 1,
		AccountsFailed:  1,
		StartedAt:       time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		FinishedAt:      time.Date(2026, 3, 10, 12, 1, 30, 0, time.UTC),
	}
	results := []usecase.LeadResult{
		{
			Lead: usecase.EligibleLead{},
			Plan: usecase.ProvisioningPlan{AppName: "MathApp"},
			Outcomes: []usecase.Outcome{
				{Operation: usecase.OpAccountCreation, Status: usecase.StatusSuccess},
			},
		},
		{
			Outcomes: []usecase.Outcome{
				{Operation: usecase.OpAccountCreation, Status: usecase.StatusFailure, Detail: "status 500"},
			},
		},
	}
	results[0].Lead.Email = "good@example.com"
	results[1].Lead.Email = "bad@example.com"

	err := fixedNotifier(server).NotifyComplete(context.Background(), summary, results)

	assert.NoError(t, err)
	text := texts[0]
	assert.Contains(t, text, "Overall Results")
	assert.Contains(t, text, "Total Leads: 5")
	assert.Contains(t, text, "Success Rate: 50.0%")
	assert.Contains(t, text, "good@example.com → MathApp")
	assert.Contains(t, text, "bad@example.com: status 500")
}

func TestNotifyComplete_TruncatesDetails(t *testing.T) {
	var texts []string
	server := captureServer(t, &texts)
	defer server.Close()

	var results []usecase.LeadResult
	for i := 0; i < 15; i++ {
		r := usecase.LeadResult{
			Plan: usecase.ProvisioningPlan{AppName: "MathApp"},
			Outcomes: []usecase.Outcome{
				{Operation: usecase.OpAccountCreation, Status: usecase.StatusSuccess},
			},
		}
		r.Lead.Email = fmt.Sprintf("lead%02d@example.com", i)
		results = append(results, r)
	}

	err := fixedNotifier(server).NotifyComplete(context.Background(), usecase.Summary{}, results)

	assert.NoError(t, err)
	assert.Contains(t, texts[0], "... and 5 more")
	assert.NotContains(t, texts[0], "lead12@example.com")
}

func TestNotifyError_WebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := fixedNotifier(server).NotifyError(context.Background(), "boom")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
