// Package bot maps chat commands onto ledger operations and renders
// plain-text replies.
package bot

import "strings"

// Command is one parsed chat command: the lowercased name without the
// leading slash, and the whitespace-split arguments.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a chat message into a command. A "@botname" suffix
// on the command word is dropped so the bot also works in group chats.
// Messages that do not start with '/' are not commands.
func ParseCommand(text string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return Command{}, false
	}

	return Command{Name: strings.ToLower(name), Args: fields[1:]}, true
}

const helpText = `These commands are supported:
/start - greet and bot info
/help - display this text
/total - total amount of money
/accounts - your accounts
/addaccount <name> <balance> - add account, e.g. /addaccount cash 150
/editaccount <id> <name> <balance> - overwrite an account
/delaccount <id> - delete account
/categories - your categories
/addcategory <name> <description> - add category
/editcategory <id> <name> <description> - edit category
/delcategory <id> - delete category
/expenses - your expenses
/income - your income
/addexpense <amount> <category> <account> - e.g. /addexpense 200 food cash
/addincome <amount> <category> <account> - e.g. /addincome 500 salary cash
/delexp <id> - delete expense
/delinc <id> - delete income`

const startText = "Hi. I keep your personal finance ledger: accounts, categories, expenses and income. Send /help to see the commands."
