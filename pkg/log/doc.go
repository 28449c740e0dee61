/*
Package log provides structured logging for the tinymux engine using zerolog.

A single global Logger is initialized once via Init and wrapped by
component loggers (WithComponent, WithDbref, WithAttr) so that every
subsystem — the evaluator, the queue, the attribute store — tags its
output without threading a logger through every call.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	evalLog := log.WithComponent("eval")
	evalLog.Debug().Int("dbref", int(executor)).Msg("evaluating attribute")

Never log attribute values or command text at Info level or above —
player-authored text belongs in the #-1 error tokens the evaluator
already produces, not in the server's own logs.
*/
package log
