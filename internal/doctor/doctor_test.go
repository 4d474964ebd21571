package doctor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/glimpse/internal/config"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "a", Pass: true, Message: "fine"},
		{Name: "b", Pass: false, Message: "broken"},
	}}

	require.False(t, report.OK())
	rendered := report.String()
	require.Contains(t, rendered, "[OK] a: fine")
	require.Contains(t, rendered, "[FAIL] b: broken")

	report.Checks = report.Checks[:1]
	require.True(t, report.OK())
}

func TestCheckCommand(t *testing.T) {
	check := checkCommand(nil, "screenshot_cmd")
	require.False(t, check.Pass)

	check = checkCommand([]string{"sh", "-c", "true"}, "screenshot_cmd")
	require.True(t, check.Pass)

	check = checkCommand([]string{"definitely-not-a-binary-xyz"}, "recorder_cmd")
	require.False(t, check.Pass)
}

func TestCheckProvider(t *testing.T) {
	cfg := config.Default()
	check := checkProvider(cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "api_key")

	cfg.Provider.APIKey = "sk-test"
	check = checkProvider(cfg)
	require.True(t, check.Pass)

	cfg.Provider.Endpoint = ""
	check = checkProvider(cfg)
	require.False(t, check.Pass)
}
