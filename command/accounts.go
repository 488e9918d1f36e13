package command

import (
	"commandr/account"
	"fmt"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin/binding"
	"github.com/spf13/cobra"
)

func newAccountsCommand(load configLoader) *cobra.Command {
	accounts := &cobra.Command{
		Use:   "accounts",
		Short: "Manage sign-in accounts",
	}
	accounts.AddCommand(newCreateAccountCommand(load), newSetActiveCommand(load, false), newSetActiveCommand(load, true))
	return accounts
}

func newCreateAccountCommand(load configLoader) *cobra.Command {
	c := account.AccountCreation{}
	var position uint64
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an active account bound to a position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.PositionID = types.ID(position)
			if err := binding.Validator.ValidateStruct(&c); err != nil {
				return err
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			ds, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer ds.Stop()

			info, err := account.NewManager(ds, cfg.Session.BcryptCost).CreateAccount(cmd.Context(), &c)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "account %s created for %s\n", info.ID, info.Email)
			return err
		},
	}
	cmd.Flags().StringVar(&c.Email, "email", "", "sign-in email")
	cmd.Flags().StringVar(&c.Name, "name", "", "display name")
	cmd.Flags().StringVar(&c.Password, "password", "", "initial password")
	cmd.Flags().Uint64Var(&position, "position", 0, "position id")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("position")
	return cmd
}

// newSetActiveCommand builds "activate" or "deactivate". A deactivated account fails its next request.
func newSetActiveCommand(load configLoader, active bool) *cobra.Command {
	use, short := "deactivate EMAIL", "Deactivate an account, its sessions stop being authorized"
	if active {
		use, short = "activate EMAIL", "Reactivate an account"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ds, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer ds.Stop()

			m := account.NewManager(ds, cfg.Session.BcryptCost)
			info, err := m.FindAccountByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := m.SetActive(cmd.Context(), info.ID, active); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "account %s active=%t\n", info.Email, active)
			return err
		},
	}
}
