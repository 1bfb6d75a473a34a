//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "kitchenpos-api"
	ConsumerName = "pos-terminal"

	StateMenusAndTableSeeded = "menus 10 and 11 and table 5 exist"
	StateOrderExists         = "order with id 1 exists"
	StateOrderCompleted      = "order with id 1 is completed"
	StateOrderMissing        = "no order with id 999"
)

const (
	ExistingTableID int64 = 5
	FirstMenuID     int64 = 10
	SecondMenuID    int64 = 11

	ExistingOrderID int64 = 1
	MissingOrderID  int64 = 999
)

const exampleOrderedTime = "2024-06-12T10:00:00Z"

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the POS terminal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleOrderCreatePayload is the request body the terminal sends to place an order.
func ExampleOrderCreatePayload() map[string]any {
	return map[string]any{
		"orderTableId": ExistingTableID,
		"orderLineItems": []map[string]any{
			{"menuId": FirstMenuID, "quantity": 2},
			{"menuId": SecondMenuID, "quantity": 1},
		},
	}
}

// ExampleOrderPayload provides stable response data for order interactions.
func ExampleOrderPayload(status string) map[string]any {
	return map[string]any{
		"id":           ExistingOrderID,
		"orderTableId": ExistingTableID,
		"orderStatus":  status,
		"orderedTime":  exampleOrderedTime,
		"orderLineItems": []map[string]any{
			{"seq": 1, "orderId": ExistingOrderID, "menuId": FirstMenuID, "quantity": 2},
		},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
