package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/and161185/homeservices/internal/auth"
	"github.com/and161185/homeservices/internal/errs"
	"github.com/and161185/homeservices/internal/model"
)

// sessionView is what login, register and whoami print.
type sessionView struct {
	auth.Identity
	State string `json:"state"`
	Route string `json:"route,omitempty"`
}

func (c *cli) printSession() error {
	id, ok := c.app.Auth.WhoAmI()
	if !ok {
		return errs.ErrNoSession
	}
	return c.printJSON(sessionView{
		Identity: id,
		State:    c.app.Auth.State().String(),
		Route:    c.app.Router.Current().Path,
	})
}

func newLoginCommand(c *cli) *cobra.Command {
	var (
		cr        model.Credentials
		fromStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := c.password(cr.Password, fromStdin)
			if err != nil {
				return err
			}
			cr.Password = pw
			if err := c.app.Auth.Login(cmd.Context(), cr); err != nil {
				return err
			}
			return c.printSession()
		},
	}
	cmd.Flags().StringVarP(&cr.Email, "email", "u", "", "account email")
	cmd.Flags().StringVarP(&cr.Password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCommand(c *cli) *cobra.Command {
	var (
		r         model.Registration
		role      string
		fromStdin bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer or professional account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := c.password(r.Password, fromStdin)
			if err != nil {
				return err
			}
			r.Password = pw
			r.Role = model.Role(role)
			if err := c.app.Auth.Register(cmd.Context(), r); err != nil {
				return err
			}
			return c.printSession()
		},
	}
	f := cmd.Flags()
	f.StringVarP(&r.Email, "email", "u", "", "account email")
	f.StringVarP(&r.Password, "password", "p", "", "account password")
	f.BoolVar(&fromStdin, "password-stdin", false, "read the password from stdin")
	f.StringVar(&r.Name, "name", "", "full name")
	f.StringVar(&role, "role", string(model.RoleCustomer), "customer or professional")
	f.StringVar(&r.Phone, "phone", "", "10-digit phone number")
	f.StringVar(&r.Address, "address", "", "street address (customers)")
	f.StringVar(&r.Pincode, "pincode", "", "6-digit pincode (customers)")
	f.Int64Var(&r.ServiceID, "service-id", 0, "offered service (professionals)")
	f.IntVar(&r.YearsExperience, "years", 0, "years of experience (professionals)")
	f.StringVar(&r.Bio, "bio", "", "short bio (professionals)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLogoutCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Auth.Logout(cmd.Context())
		},
	}
}

func newWhoAmICommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return c.printSession()
		},
	}
}

func newRefreshCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Replace the access token using the stored refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.app.Auth.Refresh(cmd.Context()); err != nil {
				if errors.Is(err, errs.ErrNoRefreshToken) {
					return errors.New("not signed in")
				}
				return err
			}
			return c.printSession()
		},
	}
}

func newOpenCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "open <route>",
		Short: "Resolve a view through the route guard",
		Long:  "Resolve a named view (for example admin-dashboard) and print where the guard lands.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.app.Router.Navigate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printJSON(r)
		},
	}
}
