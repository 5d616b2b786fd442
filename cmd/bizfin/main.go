// Command bizfin is a small terminal client for the dashboard API. It keeps
// the session in a local file, so tokens survive between invocations and
// expired ones are refreshed transparently.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bizfinhq/bizfin-go/api"
	"github.com/bizfinhq/bizfin-go/auth"
	"github.com/bizfinhq/bizfin-go/client"
	"github.com/bizfinhq/bizfin-go/internal/config"
	"github.com/bizfinhq/bizfin-go/session/filestore"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := run(os.Args[1:]); err != nil {
		log.Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if len(args) == 0 {
		usage()
		return nil
	}

	c := config.New()
	sdk, err := client.New(c.GetBaseURL(), filestore.New(c.GetSessionFile()), client.Options{
		HTTPTimeout:    c.GetHTTPTimeout(),
		ManagerOptions: []auth.Option{auth.WithLeadTime(c.GetRefreshLeadTime())},
	})
	if err != nil {
		return err
	}
	defer sdk.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch args[0] {
	case "login":
		if len(args) != 3 {
			return errors.New("usage: bizfin login <email> <password>")
		}
		return login(ctx, sdk, args[1], args[2])
	case "demo":
		return demo(ctx, sdk)
	case "me":
		return me(ctx, sdk)
	case "transactions":
		return transactions(ctx, sdk)
	case "summary":
		return summary(ctx, sdk)
	case "offers":
		return offers(ctx, sdk)
	case "metrics":
		return metrics(ctx, sdk)
	case "logout":
		return sdk.Session.Logout(ctx)
	default:
		usage()
		return errors.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	displayAppname(config.New().GetAppName())
	fmt.Println("usage: bizfin <command>")
	fmt.Println()
	fmt.Println("  login <email> <password>  sign in and store the session")
	fmt.Println("  demo                      sign in as the shared demo user")
	fmt.Println("  me                        show the current profile")
	fmt.Println("  transactions              list recent transactions")
	fmt.Println("  summary                   30-day payment summary")
	fmt.Println("  offers                    list financing offers")
	fmt.Println("  metrics                   recent business metric snapshots")
	fmt.Println("  logout                    sign out and clear the session")
}

func login(ctx context.Context, sdk *client.Client, email, password string) error {
	sess, err := sdk.Session.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s)\n", sess.User.FullName(), sess.User.Email)
	fmt.Printf("Access token expires at %s\n", sess.ExpiresAt.Format(time.RFC1123))
	return nil
}

func demo(ctx context.Context, sdk *client.Client) error {
	sess, err := sdk.Session.LoginDemo(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as demo user %s\n", sess.User.Email)
	return nil
}

func me(ctx context.Context, sdk *client.Client) error {
	if err := sdk.Session.Hydrate(ctx); err != nil {
		return err
	}
	sess := sdk.Session.Session()
	if sess.Empty() {
		fmt.Println("Not signed in.")
		return nil
	}
	fmt.Printf("%s <%s>\n", sess.User.FullName(), sess.User.Email)
	fmt.Printf("Business: %s", sess.User.BusinessName)
	if sess.User.BusinessType != "" {
		fmt.Printf(" (%s)", sess.User.BusinessType)
	}
	fmt.Println()
	fmt.Printf("Subscription: %s\n", sess.User.SubscriptionTier)
	return nil
}

func transactions(ctx context.Context, sdk *client.Client) error {
	page, err := sdk.API.Transactions(ctx, api.TransactionListOptions{Limit: 20})
	if err != nil {
		return err
	}
	for _, tx := range page.Transactions {
		fmt.Printf("%-36s  %10.2f  %-10s  %s\n", tx.ID, tx.Amount, tx.Status, tx.Description)
	}
	fmt.Printf("page %d of %d (%d transactions)\n", page.Page, page.TotalPages, page.TotalCount)
	return nil
}

func summary(ctx context.Context, sdk *client.Client) error {
	s, err := sdk.API.PaymentSummary(ctx, 30)
	if err != nil {
		return err
	}
	fmt.Printf("Last %d days: %d transactions, %.2f revenue, %.0f%% success\n",
		s.PeriodDays, s.TotalTransactions, s.TotalRevenue, s.SuccessRate*100)
	return nil
}

func offers(ctx context.Context, sdk *client.Client) error {
	result, err := sdk.API.LoanOffers(ctx, 0)
	if err != nil {
		return err
	}
	fmt.Printf("Offers based on score %d:\n", result.BasedOnScore)
	for _, offer := range result.Offers {
		fmt.Printf("  %-20s %-18s %.1f%%  %.0f-%.0f\n",
			offer.Provider, offer.LoanName, offer.InterestRate,
			offer.AmountRange.Min, offer.AmountRange.Max)
	}
	return nil
}

func metrics(ctx context.Context, sdk *client.Client) error {
	rows, err := sdk.API.BusinessMetrics(ctx, 6)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No metrics calculated yet.")
		return nil
	}
	for _, m := range rows {
		fmt.Printf("%s  revenue %10.2f  expenses %10.2f  margin %5.1f%%  customers %d\n",
			m.PeriodEnd, m.MonthlyRevenue, m.MonthlyExpenses, m.ProfitMargin*100, m.CustomerCount)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
