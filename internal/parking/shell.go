package parking

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Shell is the line-oriented operator console. It owns all user-facing
// wording; the service only returns values and sentinel errors.
type Shell struct {
	service   *InstrumentedService
	scanner   *bufio.Scanner
	out       io.Writer
	telemetry *TelemetryProvider
}

func NewShell(service *InstrumentedService, telemetry *TelemetryProvider, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		service:   service,
		scanner:   bufio.NewScanner(in),
		out:       out,
		telemetry: telemetry,
	}
}

func (s *Shell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for ctx.Err() == nil {
		if !s.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		// Create a new span for each command
		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))

		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	span := trace.SpanFromContext(ctx)

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := strings.ToLower(parts[0])
	span.SetAttributes(attribute.String("command.name", command))

	switch command {
	case "park":
		s.handlePark(ctx, parts)
	case "park_at":
		s.handleParkAt(ctx, parts)
	case "leave":
		s.handleLeave(ctx, parts)
	case "find":
		s.handleFind(ctx, parts)
	case "find_slot":
		s.handleFindSlot(ctx, parts)
	case "status":
		s.handleStatus(ctx)
	case "floors":
		s.handleFloors(ctx)
	case "tickets":
		s.handleTickets(ctx)
	case "history":
		s.handleHistory(ctx)
	case "revenue":
		s.handleRevenue(ctx)
	case "estimate":
		s.handleEstimate(ctx, parts)
	case "add_slot":
		s.handleAddSlot(ctx, parts)
	case "help":
		s.printHelp()
	default:
		span.AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", command),
		))
		s.printf("Unknown command: %s\n", command)
	}
}

func (s *Shell) printHelp() {
	s.printf("Commands:\n")
	for _, line := range []string{
		"park <plate> [owner] [phone]",
		"park_at <slot_id> <plate> [owner] [phone]",
		"leave <ticket_id>",
		"find <plate>",
		"find_slot <slot_id>",
		"status",
		"floors",
		"tickets",
		"history",
		"revenue",
		"estimate <hours>",
		"add_slot <slot_id> <floor> <distance>",
		"exit",
	} {
		s.printf("  %s\n", line)
	}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
