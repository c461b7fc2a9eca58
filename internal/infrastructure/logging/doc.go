// Package logging provides structured logging using uber/zap.
//
// Production mode writes JSON for machine parsing; development mode
// writes colored console output. Components receive a named child
// logger:
//
//	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	bridgeLog := logger.Component("bridge")
//	bridgeLog.Warn("Backend variant changed", zap.Stringer("to", variant))
package logging
