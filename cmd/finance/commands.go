package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"finance-tracker/internal/models"
)

func runSignup(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("signup", stderr)
	email := fs.String("email", "", "Email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := requireUser(fs, cf, stdout, "finance signup -user <username> -email <email> [-password <password>] [-db <db_path>]"); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("missing required flags: email")
	}

	password, err := resolvePassword(cf, stdin, stdout)
	if err != nil {
		return err
	}

	a, err := openApp(cf, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.svc.Signup(context.Background(), *cf.username, *email, password)
	if err != nil {
		return describe(err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}

func runLogin(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("login", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withUser(fs, cf, "finance login -user <username>", stdin, stdout, stderr, func(ctx context.Context, a *app, user *models.User) error {
		fmt.Fprintf(stdout, "Logged in as %s (ID %d)\n", user.Username, user.ID)

		transactions, err := a.svc.GetAllUserTransactions(ctx, user.ID)
		if err != nil {
			return describe(err)
		}
		printTransactions(stdout, transactions)
		return nil
	})
}

func runAddExpense(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return addTransaction("add-expense", false, args, stdin, stdout, stderr)
}

func runAddIncome(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return addTransaction("add-income", true, args, stdin, stdout, stderr)
}

func addTransaction(name string, income bool, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet(name, stderr)
	txType := fs.String("type", "", "Category, e.g. food or salary")
	amount := fs.Float64("amount", 0, "Amount (sign is applied automatically)")
	date := fs.String("date", time.Now().Format(models.DateLayout), "Date (YYYY-MM-DD)")
	description := fs.String("description", "", "Optional description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	usage := "finance " + name + " -user <username> -type <type> -amount <amount> [-date YYYY-MM-DD] [-description <text>]"
	return withUser(fs, cf, usage, stdin, stdout, stderr, func(ctx context.Context, a *app, user *models.User) error {
		if *amount == 0 {
			return fmt.Errorf("amount must be non-zero")
		}

		add := a.svc.AddExpense
		if income {
			add = a.svc.AddIncome
		}

		t, err := add(ctx, user.ID, *txType, *amount, *date, *description)
		if err != nil {
			return describe(err)
		}

		fmt.Fprintf(stdout, "Transaction %d recorded: %s %.2f on %s\n", t.ID, t.Type, t.Amount, t.Date)
		return nil
	})
}

func runList(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("list", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withUser(fs, cf, "finance list -user <username>", stdin, stdout, stderr, func(ctx context.Context, a *app, user *models.User) error {
		transactions, err := a.svc.GetAllUserTransactions(ctx, user.ID)
		if err != nil {
			return describe(err)
		}
		printTransactions(stdout, transactions)
		return nil
	})
}

func runAddGoal(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("add-goal", stderr)
	name := fs.String("name", "", "Goal name")
	amount := fs.Float64("amount", 0, "Target amount")
	start := fs.String("start", time.Now().Format(models.DateLayout), "Start date (YYYY-MM-DD)")
	end := fs.String("end", "", "End date (YYYY-MM-DD)")
	parent := fs.Int64("parent", 0, "Optional parent goal ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	usage := "finance add-goal -user <username> -name <name> -amount <amount> -end YYYY-MM-DD [-start YYYY-MM-DD] [-parent <id>]"
	return withUser(fs, cf, usage, stdin, stdout, stderr, func(ctx context.Context, a *app, user *models.User) error {
		var parentID *int64
		if *parent != 0 {
			parentID = parent
		}

		g, err := a.svc.AddGoal(ctx, user.ID, *amount, *name, *start, *end, parentID)
		if err != nil {
			return describe(err)
		}

		fmt.Fprintf(stdout, "Goal %d created: %s %.2f from %s to %s\n", g.ID, g.Name, g.Amount, g.StartDate, g.EndDate)
		return nil
	})
}

func runGoals(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("goals", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withUser(fs, cf, "finance goals -user <username>", stdin, stdout, stderr, func(ctx context.Context, a *app, user *models.User) error {
		goals, err := a.svc.GetUserGoals(ctx, user.ID)
		if err != nil {
			return describe(err)
		}
		printGoals(stdout, goals)
		return nil
	})
}

// withUser authenticates the -user flag holder, then runs fn.
func withUser(fs *flag.FlagSet, cf *commonFlags, usage string, stdin io.Reader, stdout, stderr io.Writer, fn func(context.Context, *app, *models.User) error) error {
	if err := requireUser(fs, cf, stdout, usage); err != nil {
		return err
	}

	password, err := resolvePassword(cf, stdin, stdout)
	if err != nil {
		return err
	}

	a, err := openApp(cf, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	user, err := a.svc.Login(ctx, *cf.username, password)
	if err != nil {
		return describe(err)
	}
	return fn(ctx, a, user)
}

func printTransactions(w io.Writer, transactions []models.Transaction) {
	if len(transactions) == 0 {
		fmt.Fprintln(w, "No transactions yet.")
		return
	}

	var total float64
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tDESCRIPTION")
	for _, t := range transactions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\n", t.ID, t.Date, t.Type, t.Amount, t.Description)
		total += t.Amount
	}
	tw.Flush()
	fmt.Fprintf(w, "Balance: %.2f\n", total)
}

func printGoals(w io.Writer, goals []models.Goal) {
	if len(goals) == 0 {
		fmt.Fprintln(w, "No goals yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAMOUNT\tSTART\tEND\tPARENT")
	for _, g := range goals {
		parent := "-"
		if g.ParentGoalID != nil {
			parent = fmt.Sprint(*g.ParentGoalID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\t%s\n", g.ID, g.Name, g.Amount, g.StartDate, g.EndDate, parent)
	}
	tw.Flush()
}
