package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Sypoo1/finance/internal/core"
	"github.com/Sypoo1/finance/internal/ledger"
)

// Router turns chat messages into ledger calls. The chat id doubles as the
// user id, so every operation is scoped to the sender.
type Router struct {
	ledger *ledger.Service
}

func NewRouter(svc *ledger.Service) *Router {
	return &Router{ledger: svc}
}

// Dispatch handles one inbound message and returns the reply text. It
// never returns an error: failures are rendered for the user, and the
// underlying cause is logged here.
func (r *Router) Dispatch(ctx context.Context, userID int64, text string) string {
	cmd, ok := ParseCommand(text)
	if !ok {
		return "I only understand commands. Send /help to see them."
	}

	reply, err := r.handle(ctx, userID, cmd)
	if err != nil {
		slog.ErrorContext(ctx, "Command failed",
			"command", cmd.Name, "user_id", userID, "error", err)
		return renderError(err)
	}
	return reply
}

func (r *Router) handle(ctx context.Context, userID int64, cmd Command) (string, error) {
	switch cmd.Name {
	case "start":
		return startText, nil
	case "help":
		return helpText, nil
	case "total":
		return r.total(ctx, userID)
	case "accounts":
		return r.accounts(ctx, userID)
	case "addaccount":
		return r.addAccount(ctx, userID, cmd.Args)
	case "editaccount":
		return r.editAccount(ctx, cmd.Args)
	case "delaccount":
		return r.delAccount(ctx, cmd.Args)
	case "categories":
		return r.categories(ctx, userID)
	case "addcategory":
		return r.addCategory(ctx, userID, cmd.Args)
	case "editcategory":
		return r.editCategory(ctx, cmd.Args)
	case "delcategory":
		return r.delCategory(ctx, cmd.Args)
	case "expenses":
		return r.transactions(ctx, userID, core.KindExpense)
	case "income":
		return r.transactions(ctx, userID, core.KindIncome)
	case "addexpense":
		return r.addTransaction(ctx, userID, core.KindExpense, cmd.Args)
	case "addincome":
		return r.addTransaction(ctx, userID, core.KindIncome, cmd.Args)
	case "delexp":
		return r.delTransaction(ctx, core.KindExpense, cmd.Args)
	case "delinc":
		return r.delTransaction(ctx, core.KindIncome, cmd.Args)
	default:
		return "Unknown command. Send /help to see what I can do.", nil
	}
}

func (r *Router) total(ctx context.Context, userID int64) (string, error) {
	total, err := r.ledger.TotalBalance(ctx, userID)
	if err != nil {
		return "", err
	}
	return "Total balance: " + total.String(), nil
}

func (r *Router) accounts(ctx context.Context, userID int64) (string, error) {
	accounts, err := r.ledger.ListAccounts(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "No accounts yet. Add one with /addaccount <name> <balance>.", nil
	}

	lines := make([]string, len(accounts))
	for i, acc := range accounts {
		lines[i] = fmt.Sprintf("id: %d name: %s balance: %s", acc.ID, acc.Name, acc.Balance)
	}
	return strings.Join(lines, "\n"), nil
}

func (r *Router) addAccount(ctx context.Context, userID int64, args []string) (string, error) {
	if len(args) != 2 {
		return "Usage: /addaccount <name> <balance>", nil
	}
	balance, err := core.ParseBalanceCents(args[1])
	if err != nil {
		return "", err
	}

	acc, err := r.ledger.CreateAccount(ctx, userID, args[0], balance)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Account %s added with id %d.", acc.Name, acc.ID), nil
}

func (r *Router) editAccount(ctx context.Context, args []string) (string, error) {
	if len(args) != 3 {
		return "Usage: /editaccount <id> <name> <balance>", nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "Usage: /editaccount <id> <name> <balance>", nil
	}
	balance, err := core.ParseBalanceCents(args[2])
	if err != nil {
		return "", err
	}

	if err := r.ledger.EditAccount(ctx, id, args[1], balance); err != nil {
		return "", err
	}
	return "Account updated.", nil
}

func (r *Router) delAccount(ctx context.Context, args []string) (string, error) {
	id, ok := parseID(args)
	if !ok {
		return "Usage: /delaccount <id>", nil
	}
	if err := r.ledger.DeleteAccount(ctx, id); err != nil {
		return "", err
	}
	return "Account deleted.", nil
}

func (r *Router) categories(ctx context.Context, userID int64) (string, error) {
	categories, err := r.ledger.ListCategories(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(categories) == 0 {
		return "No categories yet. Add one with /addcategory <name> <description>.", nil
	}

	lines := make([]string, len(categories))
	for i, cat := range categories {
		lines[i] = fmt.Sprintf("id: %d name: %s description: %s", cat.ID, cat.Name, cat.Description)
	}
	return strings.Join(lines, "\n"), nil
}

func (r *Router) addCategory(ctx context.Context, userID int64, args []string) (string, error) {
	if len(args) < 2 {
		return "Usage: /addcategory <name> <description>", nil
	}
	cat, err := r.ledger.CreateCategory(ctx, userID, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Category %s added with id %d.", cat.Name, cat.ID), nil
}

func (r *Router) editCategory(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "Usage: /editcategory <id> <name> <description>", nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "Usage: /editcategory <id> <name> <description>", nil
	}

	if err := r.ledger.EditCategory(ctx, id, args[1], strings.Join(args[2:], " ")); err != nil {
		return "", err
	}
	return "Category updated.", nil
}

func (r *Router) delCategory(ctx context.Context, args []string) (string, error) {
	id, ok := parseID(args)
	if !ok {
		return "Usage: /delcategory <id>", nil
	}
	if err := r.ledger.DeleteCategory(ctx, id); err != nil {
		return "", err
	}
	return "Category deleted.", nil
}

func (r *Router) transactions(ctx context.Context, userID int64, kind core.Kind) (string, error) {
	var (
		txns []core.Transaction
		err  error
	)
	if kind == core.KindExpense {
		txns, err = r.ledger.ListExpenses(ctx, userID)
	} else {
		txns, err = r.ledger.ListIncome(ctx, userID)
	}
	if err != nil {
		return "", err
	}
	if len(txns) == 0 {
		return "Nothing recorded yet.", nil
	}

	lines := make([]string, len(txns))
	for i, txn := range txns {
		lines[i] = fmt.Sprintf("id: %d account: %s category: %s amount: %s",
			txn.ID, txn.Account, txn.Category, txn.Amount)
	}
	return strings.Join(lines, "\n"), nil
}

func (r *Router) addTransaction(ctx context.Context, userID int64, kind core.Kind, args []string) (string, error) {
	usage := "Usage: /addexpense <amount> <category> <account>"
	if kind == core.KindIncome {
		usage = "Usage: /addincome <amount> <category> <account>"
	}
	if len(args) != 3 {
		return usage, nil
	}
	amount, err := core.ParseAmountCents(args[0])
	if err != nil {
		return "", err
	}

	var id int64
	if kind == core.KindExpense {
		id, err = r.ledger.AddExpense(ctx, userID, amount, args[1], args[2])
	} else {
		id, err = r.ledger.AddIncome(ctx, userID, amount, args[1], args[2])
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Recorded %s with id %d.", kind, id), nil
}

func (r *Router) delTransaction(ctx context.Context, kind core.Kind, args []string) (string, error) {
	usage := "Usage: /delexp <id>"
	if kind == core.KindIncome {
		usage = "Usage: /delinc <id>"
	}
	id, ok := parseID(args)
	if !ok {
		return usage, nil
	}

	var err error
	if kind == core.KindExpense {
		err = r.ledger.DeleteExpense(ctx, id)
	} else {
		err = r.ledger.DeleteIncome(ctx, id)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted %s %d.", kind, id), nil
}

func parseID(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// renderError turns a typed ledger error into a short human sentence.
// The raw cause never reaches the chat.
func renderError(err error) string {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return "Not found. Check the name or id and try again."
	case errors.Is(err, core.ErrConflict):
		return "That name is already in use."
	case errors.Is(err, core.ErrReferenced):
		return "It still has expenses or income recorded against it. Delete those first."
	case errors.Is(err, core.ErrInvalidAmount):
		return "That does not look like a valid amount."
	case errors.Is(err, core.ErrEmptyName):
		return "The name cannot be empty."
	default:
		return "Something went wrong. Please try again later."
	}
}
