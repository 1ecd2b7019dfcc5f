package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Algobot Configuration

[trading]
# Trading mode: "live" or "paper"
mode = "paper"
# Shares submitted per signal
shares_per_trade = 1
# Symbols eligible for order execution
trade_symbols = ["AAPL", "MSFT"]
# Symbols evaluated during scan passes
scan_symbols = ["AAPL", "MSFT", "GOOG", "AMZN", "NVDA"]

[indicators]
sma_fast = 10
sma_slow = 50
rsi_period = 14
macd_fast = 12
macd_slow = 26
macd_signal = 9
atr_period = 14
vol_period = 20

[scanner]
# Concurrent symbol workers
concurrency = 4
# Daily bars fetched per symbol
lookback = 120
rsi_oversold = 30.0
rsi_overbought = 70.0
# 0 disables the filter
min_volume = 0
max_atr_pct = 0.0

[schedule]
# Daily pass times, local wall clock
report_times = ["08:00", "20:00"]
timezone = "Local"

[notifications]
enabled = false
# Notification level: all, trades_only, errors_only
level = "all"

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""

[notifications.email]
enabled = false
smtp_host = ""
smtp_port = 587
username = ""
password = ""
from = ""
to = ""

[notifications.whatsapp]
enabled = false
account_sid = ""
auth_token = ""
from = ""
to = ""

[broker]
host = "127.0.0.1"
port = 7497
client_id = 1
`

// createTemplateConfig writes the default config.toml so a first run leaves
// an editable file behind.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}
