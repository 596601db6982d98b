package mentionintegrationtests

import (
	"flag"
	"log"
	"os"
	"testing"

	"github.com/tnt-tag-history/tnt-history/integration_tests/testutils"
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		log.Println("Skipping mention integration tests in short mode")
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
