package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/homeservices/internal/api"
	"github.com/and161185/homeservices/internal/model"
	"github.com/and161185/homeservices/internal/store"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad id %q", s)
	}
	return id, nil
}

// withID adapts a command body that takes the positional id.
func withID(fn func(cmd *cobra.Command, id int64) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return fn(cmd, id)
	}
}

func parseDate(s string) (time.Time, error) {
	t, err := model.ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q", s)
	}
	return t.Time, nil
}

func (c *cli) printDone(ok bool, id int64, what string) error {
	if !ok {
		return fmt.Errorf("%d: not %s", id, what)
	}
	return c.printJSON(map[string]any{"id": id, what: true})
}

func newServicesCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "services", Short: "Browse and manage the service catalog"}

	var (
		search, pincode string
		showInactive    bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Services.SetFilters(store.ServiceFilterPatch{
				Search:       &search,
				Pincode:      &pincode,
				ShowInactive: &showInactive,
			})
			if _, err := c.app.Services.FetchAll(cmd.Context()); err != nil {
				return err
			}
			return c.printJSON(c.app.Services.Filtered())
		},
	}
	list.Flags().StringVarP(&search, "search", "q", "", "match name or description")
	list.Flags().StringVar(&pincode, "pincode", "", "only services offered at this pincode")
	list.Flags().BoolVar(&showInactive, "all", false, "include inactive services")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one service",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			s, err := c.app.Services.FetchOne(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printJSON(s)
		}),
	}

	var (
		in     model.ServiceInput
		active bool
	)
	bind := func(cmd *cobra.Command) {
		f := cmd.Flags()
		f.StringVar(&in.Name, "name", "", "service name")
		f.Float64Var(&in.BasePrice, "price", 0, "base price")
		f.IntVar(&in.EstimatedTime, "minutes", 0, "estimated time in minutes")
		f.StringVar(&in.Description, "description", "", "description")
		f.BoolVar(&active, "active", true, "offer the service")
	}
	input := func(cmd *cobra.Command) model.ServiceInput {
		if cmd.Flags().Changed("active") {
			in.IsActive = store.Ptr(active)
		}
		return in
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Add a service (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.app.Services.Create(cmd.Context(), input(cmd))
			if err != nil {
				return err
			}
			return c.printJSON(s)
		},
	}
	bind(create)
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("price")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a service (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			s, err := c.app.Services.Update(cmd.Context(), id, input(cmd))
			if err != nil {
				return err
			}
			return c.printJSON(s)
		}),
	}
	bind(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a service (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			ok, err := c.app.Services.Remove(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printDone(ok, id, "removed")
		}),
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}

func newRequestsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "requests", Short: "Work with service requests"}

	var status, from, to, search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the requests visible to the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := store.RequestFilterPatch{Status: &status, Search: &search}
			if from != "" {
				t, err := parseDate(from)
				if err != nil {
					return err
				}
				p.DateFrom = &t
			}
			if to != "" {
				t, err := parseDate(to)
				if err != nil {
					return err
				}
				p.DateTo = &t
			}
			c.app.Requests.SetFilters(p)
			if _, err := c.app.Requests.FetchAll(cmd.Context()); err != nil {
				return err
			}
			return c.printJSON(c.app.Requests.Filtered())
		},
	}
	list.Flags().StringVar(&status, "status", "", "requested, assigned, in_progress, completed, closed or cancelled")
	list.Flags().StringVar(&from, "from", "", "earliest request date (YYYY-MM-DD)")
	list.Flags().StringVar(&to, "to", "", "latest request date (YYYY-MM-DD)")
	list.Flags().StringVarP(&search, "search", "q", "", "match service, customer or remarks")

	available := &cobra.Command{
		Use:   "available",
		Short: "List open requests a professional can accept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rs, err := c.app.Requests.FetchAvailable(cmd.Context())
			if err != nil {
				return err
			}
			return c.printJSON(rs)
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one request with its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			r, err := c.app.Requests.FetchOne(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printJSON(r)
		}),
	}

	var in model.RequestInput
	bind := func(cmd *cobra.Command) {
		f := cmd.Flags()
		f.Int64Var(&in.ServiceID, "service-id", 0, "requested service")
		f.StringVar(&in.ScheduledDate, "date", "", "scheduled date (RFC 3339 or YYYY-MM-DD HH:MM)")
		f.StringVar(&in.Remarks, "remarks", "", "notes for the professional")
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Book a service (customer)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := c.app.Requests.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.printJSON(r)
		},
	}
	bind(create)
	_ = create.MarkFlagRequired("service-id")
	_ = create.MarkFlagRequired("date")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Reschedule or edit an open request",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			r, err := c.app.Requests.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return c.printJSON(r)
		}),
	}
	bind(update)

	cancel := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a request",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			ok, err := c.app.Requests.Cancel(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printDone(ok, id, "cancelled")
		}),
	}

	var reason string
	action := &cobra.Command{
		Use:       "action <id> <accept|reject|start|complete|close>",
		Short:     "Move a request through its lifecycle",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"accept", "reject", "start", "complete", "close"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := c.app.Requests.Action(cmd.Context(), id, args[1], reason)
			if err != nil {
				return err
			}
			return c.printJSON(r)
		},
	}
	action.Flags().StringVar(&reason, "reason", "", "reason for a rejection")

	var (
		rating   int
		comment  string
		reviewID int64
	)
	review := &cobra.Command{
		Use:   "review <request-id>",
		Short: "Rate a finished request (customer)",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			in := model.ReviewInput{ServiceRequestID: id, Rating: rating, Comment: comment}
			var (
				rv  model.Review
				err error
			)
			if reviewID > 0 {
				rv, err = c.app.Requests.UpdateReview(cmd.Context(), reviewID, in)
			} else {
				rv, err = c.app.Requests.SubmitReview(cmd.Context(), in)
			}
			if err != nil {
				return err
			}
			return c.printJSON(rv)
		}),
	}
	review.Flags().IntVar(&rating, "rating", 0, "1 to 5")
	review.Flags().StringVar(&comment, "comment", "", "free text")
	review.Flags().Int64Var(&reviewID, "edit", 0, "update this existing review instead")
	_ = review.MarkFlagRequired("rating")

	reviews := &cobra.Command{
		Use:   "reviews <request-id>",
		Short: "List reviews of a request",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			rs, err := c.app.Requests.FetchReviews(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printJSON(rs)
		}),
	}

	cmd.AddCommand(list, available, get, create, update, cancel, action, review, reviews)
	return cmd
}

func newNotificationsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "notifications", Aliases: []string{"n"}, Short: "Read and manage notifications"}

	var (
		q      api.NotificationQuery
		typ    string
		search string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Notifications.SetFilters(store.NotificationFilterPatch{Type: &typ, Search: &search})
			if _, err := c.app.Notifications.FetchAll(cmd.Context(), q); err != nil {
				return err
			}
			return c.printJSON(map[string]any{
				"notifications": c.app.Notifications.Filtered(),
				"unread_count":  c.app.Notifications.UnreadCount(),
			})
		},
	}
	list.Flags().BoolVar(&q.UnreadOnly, "unread", false, "only unread notifications")
	list.Flags().IntVar(&q.Limit, "limit", 0, "at most this many")
	list.Flags().StringVar(&typ, "type", "", "notification type")
	list.Flags().StringVarP(&search, "search", "q", "", "match message text")

	read := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			return c.app.Notifications.MarkRead(cmd.Context(), id)
		}),
	}

	readAll := &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Notifications.MarkAllRead(cmd.Context())
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a notification",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			ok, err := c.app.Notifications.Remove(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printDone(ok, id, "removed")
		}),
	}

	cmd.AddCommand(list, read, readAll, del)
	return cmd
}

func newProfessionalsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "professionals", Aliases: []string{"pros"}, Short: "Browse and manage professionals"}

	var pq api.ProfessionalQuery
	browse := &cobra.Command{
		Use:   "browse",
		Short: "List verified professionals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ps, err := c.app.Client.ListProfessionals(cmd.Context(), pq)
			if err != nil {
				return err
			}
			return c.printJSON(ps)
		},
	}
	browse.Flags().Int64Var(&pq.ServiceID, "service-id", 0, "offering this service")
	browse.Flags().Float64Var(&pq.RatingMin, "rating-min", 0, "minimum average rating")
	browse.Flags().BoolVar(&pq.AllProfiles, "unverified", false, "include unverified profiles")

	var (
		status, verification, search string
		serviceID                    int64
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List every professional (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Professionals.SetFilters(store.ProfessionalFilterPatch{
				Status:             &status,
				ServiceID:          &serviceID,
				VerificationStatus: &verification,
				Search:             &search,
			})
			if _, err := c.app.Professionals.FetchAll(cmd.Context()); err != nil {
				return err
			}
			return c.printJSON(c.app.Professionals.Filtered())
		},
	}
	list.Flags().StringVar(&status, "status", "", "active or inactive")
	list.Flags().Int64Var(&serviceID, "service-id", 0, "offering this service")
	list.Flags().StringVar(&verification, "verification", "", "pending, approved or rejected")
	list.Flags().StringVarP(&search, "search", "q", "", "match name, email or service")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one professional",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			p, err := c.app.Professionals.FetchOne(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printJSON(p)
		}),
	}

	var (
		in    model.ProfessionalInput
		years int
	)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a profile (owner or admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			if cmd.Flags().Changed("years") {
				in.YearsExperience = store.Ptr(years)
			}
			p, err := c.app.Professionals.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return c.printJSON(p)
		}),
	}
	update.Flags().StringVar(&in.Name, "name", "", "full name")
	update.Flags().StringVar(&in.Phone, "phone", "", "10-digit phone number")
	update.Flags().Int64Var(&in.ServiceID, "service-id", 0, "offered service")
	update.Flags().StringVar(&in.Bio, "bio", "", "short bio")
	update.Flags().IntVar(&years, "years", 0, "years of experience")

	var message string
	verify := &cobra.Command{
		Use:       "verify <id> <approve|reject>",
		Short:     "Decide a pending verification (admin)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"approve", "reject"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := c.app.Professionals.Verify(cmd.Context(), id, args[1], message)
			if err != nil {
				return err
			}
			return c.printJSON(p)
		},
	}
	verify.Flags().StringVar(&message, "message", "", "note sent to the professional")

	upload := &cobra.Command{
		Use:   "upload <id> <file>",
		Short: "Upload a verification document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := c.readAll(args[1])
			if err != nil {
				return err
			}
			name := filepath.Base(args[1])
			if args[1] == "-" {
				name = "document"
			}
			p, err := c.app.Professionals.UploadDocument(cmd.Context(), id, name, bytes.NewReader(b))
			if err != nil {
				return err
			}
			return c.printJSON(p)
		},
	}

	statusCmd := &cobra.Command{
		Use:       "status <id> <active|inactive>",
		Short:     "Activate or deactivate a professional (admin)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"active", "inactive"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := c.app.Professionals.UpdateStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return c.printJSON(p)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a professional (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			ok, err := c.app.Professionals.Remove(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printDone(ok, id, "removed")
		}),
	}

	cmd.AddCommand(browse, list, get, update, verify, upload, statusCmd, del)
	return cmd
}

func newCustomersCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "customers", Short: "Manage customers"}

	var status, search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List every customer (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Customers.SetFilters(store.CustomerFilterPatch{Status: &status, Search: &search})
			if _, err := c.app.Customers.FetchAll(cmd.Context()); err != nil {
				return err
			}
			return c.printJSON(c.app.Customers.Filtered())
		},
	}
	list.Flags().StringVar(&status, "status", "", "active or inactive")
	list.Flags().StringVarP(&search, "search", "q", "", "match name, email or pincode")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one customer",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			cu, err := c.app.Customers.FetchOne(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printJSON(cu)
		}),
	}

	var in model.CustomerInput
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a customer profile (owner or admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			cu, err := c.app.Customers.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return c.printJSON(cu)
		}),
	}
	update.Flags().StringVar(&in.Name, "name", "", "full name")
	update.Flags().StringVar(&in.Phone, "phone", "", "10-digit phone number")
	update.Flags().StringVar(&in.Address, "address", "", "street address")
	update.Flags().StringVar(&in.Pincode, "pincode", "", "6-digit pincode")

	statusCmd := &cobra.Command{
		Use:       "status <id> <active|inactive>",
		Short:     "Activate or deactivate a customer (admin)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"active", "inactive"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cu, err := c.app.Customers.UpdateStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return c.printJSON(cu)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a customer (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error {
			ok, err := c.app.Customers.Remove(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printDone(ok, id, "removed")
		}),
	}

	cmd.AddCommand(list, get, update, statusCmd, del)
	return cmd
}

func newAdminCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Administration views"}
	cmd.AddCommand(&cobra.Command{
		Use:   "dashboard",
		Short: "Show marketplace totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.app.Dashboard.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			return c.printJSON(st)
		},
	})
	return cmd
}
