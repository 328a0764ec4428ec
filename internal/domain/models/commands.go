package models

import "strings"

// CommandType enumerates the chat commands a farm manager can send.
type CommandType string

const (
	CommandSummary CommandType = "summary"
	CommandAlerts  CommandType = "alerts"
	CommandFinance CommandType = "finance"
	CommandStock   CommandType = "stock"
	CommandRefresh CommandType = "refresh"
	CommandExpense CommandType = "expense"
	CommandIncome  CommandType = "income"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed instruction extracted from a chat message.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
// Polish aliases used by the farm staff are accepted as well.
func ParseCommand(message string) Command {
	normalized := strings.TrimSpace(strings.ToLower(message))
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return cmd
	}

	switch strings.TrimPrefix(tokens[0], "/") {
	case string(CommandSummary), "podsumowanie":
		cmd.Type = CommandSummary
	case string(CommandAlerts), "alerty":
		cmd.Type = CommandAlerts
	case string(CommandFinance), "finanse":
		cmd.Type = CommandFinance
	case string(CommandStock), "magazyn":
		cmd.Type = CommandStock
	case string(CommandRefresh), "odswiez":
		cmd.Type = CommandRefresh
	case string(CommandExpense), "wydatek":
		cmd.Type = CommandExpense
	case string(CommandIncome), "przychod":
		cmd.Type = CommandIncome
	case string(CommandHelp), "pomoc":
		cmd.Type = CommandHelp
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
