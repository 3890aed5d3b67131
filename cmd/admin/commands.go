package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/domain"
	"backoffice/internal/logger"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errPasswordMismatch = errors.New("passwords do not match")
	errEmptyPassword    = errors.New("password must not be empty")
)

// app holds what the commands share; the database opens on first use
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     database.Service
	stores service.StoreService
}

func (a *app) open() error {
	if a.db != nil {
		return nil
	}
	a.cfg = config.Load()

	log, err := logger.New(a.cfg.Server.Env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = log

	db, err := database.New(a.cfg.Database)
	if err != nil {
		return err
	}
	a.db = db

	sqlDB := db.DB()
	a.stores = service.NewStoreService(
		repository.NewStoreRepository(sqlDB),
		repository.NewUserRepository(sqlDB),
		repository.NewRoleRepository(sqlDB),
	)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Store back office maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.AddCommand(
		newMigrateCmd(a),
		newCreateStoreCmd(a),
		newAddUserCmd(a),
		newResetPasswordCmd(a),
	)
	return root
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status|redo|version]",
		Short: "Run goose migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			if err := database.Migrate(a.db.DB(), a.cfg.Server.MigrationsDir, command); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", command)
			return nil
		},
	}
}

func newCreateStoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create-store NAME",
		Short: "Create a store and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.stores.CreateStore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created store %q: %s\n", store.Name, store.ID)
			return nil
		},
	}
}

func newAddUserCmd(a *app) *cobra.Command {
	var storeID, email, name, role string

	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Add a staff member to a store; the password is prompted",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(storeID)
			if err != nil {
				return fmt.Errorf("invalid store id %q", storeID)
			}
			password, err := promptPassword(cmd.OutOrStdout(), int(os.Stdin.Fd()))
			if err != nil {
				return err
			}

			user, err := a.stores.CreateUser(cmd.Context(), id, service.NewUserInput{
				Name:     name,
				Email:    email,
				Password: password,
				RoleName: role,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s: %s\n", user.RoleName, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&storeID, "store", "", "store id")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", domain.RoleAdministrator, "Administrator, Acctg or User")
	cmd.MarkFlagRequired("store")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newResetPasswordCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a user's password; the password is prompted",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword(cmd.OutOrStdout(), int(os.Stdin.Fd()))
			if err != nil {
				return err
			}
			if err := a.stores.SetUserPassword(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.MarkFlagRequired("email")
	return cmd
}

// promptPassword reads the password twice from the terminal fd without echo
func promptPassword(out io.Writer, fd int) (string, error) {
	fmt.Fprint(out, "Enter password: ")
	first, err := readPasswordFunc(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if len(first) == 0 {
		return "", errEmptyPassword
	}

	fmt.Fprint(out, "Confirm password: ")
	second, err := readPasswordFunc(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	return string(first), nil
}
