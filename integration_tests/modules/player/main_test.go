package playerintegrationtests

import (
	"flag"
	"log"
	"os"
	"testing"

	"github.com/tnt-tag-history/tnt-history/integration_tests/testutils"
)

// testEnv is the shared test environment managed by TestMain.
var testEnv *testutils.TestEnvironment

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		log.Println("Skipping player integration tests in short mode")
		os.Exit(0)
	}

	var err error
	testEnv, err = testutils.NewTestEnvironment(testutils.Options{})
	if err != nil {
		log.Fatalf("Failed to set up test environment: %v", err)
	}

	code := m.Run()
	testEnv.Cleanup()
	os.Exit(code)
}

func resetDB(t *testing.T) {
	t.Helper()
	if err := testEnv.Reset(testEnv.Ctx); err != nil {
		t.Fatalf("failed to reset database: %v", err)
	}
}
