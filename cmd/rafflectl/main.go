// Command rafflectl shops the charity raffle from a terminal. It keeps the
// session, cart and draft order in a local state file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"raffle-bff/cart"
	"raffle-bff/clients"
	"raffle-bff/logger"
	"raffle-bff/reconcile"
	"raffle-bff/services"
	"raffle-bff/session"
	"raffle-bff/store"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// deviceName namespaces the state file the same way a browser device id
// namespaces the BFF store.
const deviceName = "local"

type globalFlags struct {
	configPath string
	apiURL     string
	stateFile  string
	verbose    bool
}

// app holds what every command needs. It is built in PersistentPreRunE.
type app struct {
	flags globalFlags
	out   io.Writer

	cfg      cliConfig
	log      *zap.Logger
	kv       store.Store
	sessions *session.Manager
	auth     services.AuthService
	catalog  services.CatalogService
	cart     services.CartService
	orders   services.OrderService
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadCLIConfig(a.flags.configPath)
	if err != nil {
		return err
	}
	if a.flags.apiURL != "" {
		cfg.APIURL = a.flags.apiURL
	}
	if a.flags.stateFile != "" {
		cfg.StateFile = a.flags.stateFile
	}
	a.cfg = cfg
	a.out = cmd.OutOrStdout()

	level := zapcore.WarnLevel
	if a.flags.verbose {
		level = zapcore.DebugLevel
	}
	if a.log, err = logger.Initialize("production", level); err != nil {
		return err
	}

	base := store.NewFileStore(cfg.StateFile)
	a.log.Debug("Using state file", zap.String("path", base.Path()), zap.String("api_url", cfg.APIURL))
	a.kv = store.ForDevice(base, deviceName)

	client := clients.NewRaffleClient(cfg.APIURL, cfg.Timeout)
	a.sessions = session.NewManager([]byte(cfg.JWTSecret), a.log)
	policy := reconcile.New(client, base, cart.NewHub(), a.log)

	a.auth = services.NewAuthService(client, a.sessions, policy, a.log)
	a.catalog = services.NewCatalogService(client, a.log)
	a.cart = services.NewCartService(policy, client, a.log)
	a.orders = services.NewOrderService(client)
	return nil
}

// owner returns the signed-in owner and a context carrying its token.
func (a *app) owner(ctx context.Context) (context.Context, reconcile.Owner, error) {
	sess, err := a.auth.Current(ctx, a.kv)
	if err != nil {
		return ctx, reconcile.Owner{}, fmt.Errorf("not logged in, run `rafflectl login` first: %w", err)
	}
	owner := reconcile.Owner{Namespace: deviceName, Identity: sess.Identity, Token: sess.Token}
	return clients.WithToken(ctx, sess.Token), owner, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "rafflectl",
		Short: "Buy charity raffle tickets from the terminal",
		Long: `rafflectl signs in to the raffle API, browses gifts and manages a ticket
cart. The cart is kept as a draft order on the server while you shop and is
confirmed with "rafflectl cart confirm".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.flags.configPath, "config", defaultConfigPath(), "config file")
	f.StringVar(&a.flags.apiURL, "api-url", "", "raffle API base url")
	f.StringVar(&a.flags.stateFile, "state", "", "state file")
	f.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newGiftsCmd(a),
		newCartCmd(a),
		newOrdersCmd(a),
		newThemeCmd(a),
	)
	return root
}

func main() {
	decimal.MarshalJSONWithoutQuotes = true
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
