package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ritech/internal/app"
	"ritech/internal/auth"
	"ritech/internal/config"
	"ritech/internal/db"
	"ritech/internal/domain"
	"ritech/internal/engine"
	"ritech/internal/events"
	"ritech/internal/migrate"
	"ritech/internal/pin"
	"ritech/internal/report"
	"ritech/internal/server"
	"ritech/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "rt",
	Short: "RiTech CLI",
	Long: `RiTech tracks field-service work for an electrical and security contractor.
Core concepts:
- Workspace: your .ritech directory holding the database; labels live in ritech.yml.
- Client: a customer. Site: one of that customer's locations. Job: a piece of
  work at a site (CCTV, alarm, access control, electrical).
- Lists are always ordered by urgency: priority open jobs first, then open
  jobs oldest-first, then closed jobs by most recent end date. Sites and
  clients inherit the urgency of their most urgent descendant.
- Records whose parent is missing are hidden everywhere until the parent
  reappears; deleting a client or site removes its descendants first.
- Event log: diary of changes, view with 'rt log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("RITECH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("dataset", "", "dataset name (overrides config)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("dataset", rootCmd.PersistentFlags().Lookup("dataset"))
}

func registerCommands() {
	rootCmd.AddCommand(clientCmd())
	rootCmd.AddCommand(siteCmd())
	rootCmd.AddCommand(jobCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(pinCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func clientCmd() *cobra.Command {
	c := &cobra.Command{Use: "client", Short: "Manage clients"}
	c.AddCommand(clientListCmd())
	c.AddCommand(clientAddCmd())
	c.AddCommand(clientUpdateCmd())
	c.AddCommand(clientDeleteCmd())
	return c
}

func clientListCmd() *cobra.Command {
	var q string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients by urgency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				v := e.View(engine.Scope{Search: q})
				if viper.GetBool("json") {
					return printJSON(v.Clients)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Sites", "Attention"})
				for _, c := range v.Clients {
					tw.AppendRow(table.Row{c.ID, c.Name, c.ActiveSites, mark(c.NeedsAttention)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&q, "q", "", "name filter")
	return cmd
}

func clientAddCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				c, err := e.AddClient(ctx, name)
				if err != nil {
					return err
				}
				return printJSONOrPlain(c)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "client name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func clientUpdateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				var f store.ClientFields
				if cmd.Flags().Changed("name") {
					f.Name = &name
				}
				if err := e.UpdateClient(ctx, id, f); err != nil {
					return err
				}
				c, _ := e.Client(id)
				return printJSONOrPlain(c)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "client name")
	return cmd
}

func clientDeleteCmd() *cobra.Command {
	return deleteCmd("client", engine.LevelClient, "Delete client, its sites and their jobs")
}

func siteCmd() *cobra.Command {
	s := &cobra.Command{Use: "site", Short: "Manage sites"}
	s.AddCommand(siteListCmd())
	s.AddCommand(siteAddCmd())
	s.AddCommand(siteUpdateCmd())
	s.AddCommand(siteDeleteCmd())
	return s
}

func siteListCmd() *cobra.Command {
	var clientID, q string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sites by urgency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				v := e.View(engine.Scope{ClientID: clientID, Search: q})
				if viper.GetBool("json") {
					return printJSON(v.Sites)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Client", "Jobs", "Attention"})
				for _, s := range v.Sites {
					tw.AppendRow(table.Row{s.ID, s.Name, s.ClientName, s.ActiveJobs, mark(s.NeedsAttention)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "restrict to one client")
	cmd.Flags().StringVar(&q, "q", "", "name filter")
	return cmd
}

func siteAddCmd() *cobra.Command {
	var clientID, name string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add site under a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				s, err := e.AddSite(ctx, clientID, name)
				if err != nil {
					return err
				}
				return printJSONOrPlain(s)
			})
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "client id")
	cmd.Flags().StringVar(&name, "name", "", "site name")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func siteUpdateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				var f store.SiteFields
				if cmd.Flags().Changed("name") {
					f.Name = &name
				}
				if err := e.UpdateSite(ctx, id, f); err != nil {
					return err
				}
				s, _ := e.Site(id)
				return printJSONOrPlain(s)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "site name")
	return cmd
}

func siteDeleteCmd() *cobra.Command {
	return deleteCmd("site", engine.LevelSite, "Delete site and its jobs")
}

func jobCmd() *cobra.Command {
	j := &cobra.Command{
		Use:   "job",
		Short: "Manage jobs",
		Long:  "Jobs are the work items at a site. Marking one done requires an end date; priority jobs sort ahead of everything else.",
	}
	j.AddCommand(jobListCmd())
	j.AddCommand(jobAddCmd())
	j.AddCommand(jobUpdateCmd())
	j.AddCommand(jobStatusCmd())
	j.AddCommand(jobDeleteCmd())
	return j
}

func jobListCmd() *cobra.Command {
	var siteID, q string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs by urgency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				v := e.View(engine.Scope{SiteID: siteID, Search: q})
				if viper.GetBool("json") {
					return printJSON(v.Jobs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Site", "Type", "Status", "Description", "Priority"})
				for _, j := range v.Jobs {
					tw.AppendRow(table.Row{
						j.ID, j.SiteName,
						cfg.Catalog.JobTypes[j.Type],
						cfg.Catalog.Statuses[j.Status],
						j.Description,
						mark(j.IsPriority),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&siteID, "site", "", "restrict to one site")
	cmd.Flags().StringVar(&q, "q", "", "text filter (description, offer, notes)")
	return cmd
}

func jobAddCmd() *cobra.Command {
	var j domain.Job
	var siteID string
	var priority bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add job under a site",
		RunE: func(cmd *cobra.Command, args []string) error {
			j.IsPriority = priority
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				res, err := e.AddJob(ctx, siteID, j)
				if err != nil {
					return err
				}
				return printJSONOrPlain(res)
			})
		},
	}
	cmd.Flags().StringVar(&siteID, "site", "", "site id")
	cmd.Flags().StringVar(&j.Type, "type", "", "job type (cctv, alarm, access, electric)")
	cmd.Flags().StringVar(&j.Status, "status", "", "initial status")
	cmd.Flags().StringVar(&j.Description, "description", "", "description")
	cmd.Flags().StringVar(&j.OfferRef, "offer", "", "offer/quote reference")
	cmd.Flags().StringVar(&j.TechnicianNotes, "notes", "", "technician notes")
	cmd.Flags().BoolVar(&priority, "priority", false, "mark as priority")
	cmd.Flags().StringVar(&j.StartDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&j.EndDate, "end", "", "end date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("site")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func jobUpdateCmd() *cobra.Command {
	var jobType, status, description, offer, notes, start, end string
	var priority bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update job fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			var f store.JobFields
			if cmd.Flags().Changed("type") {
				f.Type = &jobType
			}
			if cmd.Flags().Changed("status") {
				f.Status = &status
			}
			if cmd.Flags().Changed("description") {
				f.Description = &description
			}
			if cmd.Flags().Changed("offer") {
				f.OfferRef = &offer
			}
			if cmd.Flags().Changed("notes") {
				f.TechnicianNotes = &notes
			}
			if cmd.Flags().Changed("priority") {
				f.IsPriority = &priority
			}
			if cmd.Flags().Changed("start") {
				f.StartDate = &start
			}
			if cmd.Flags().Changed("end") {
				f.EndDate = &end
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				if err := e.UpdateJob(ctx, id, f); err != nil {
					return err
				}
				j, _ := e.Job(id)
				return printJSONOrPlain(j)
			})
		},
	}
	cmd.Flags().StringVar(&jobType, "type", "", "job type")
	cmd.Flags().StringVar(&status, "status", "", "status")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&offer, "offer", "", "offer/quote reference")
	cmd.Flags().StringVar(&notes, "notes", "", "technician notes")
	cmd.Flags().BoolVar(&priority, "priority", false, "priority flag")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	return cmd
}

func jobStatusCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "set-status <id>",
		Short: "Change job status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				if err := e.SetJobStatus(ctx, id, status); err != nil {
					return err
				}
				j, _ := e.Job(id)
				return printJSONOrPlain(j)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "new status")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func jobDeleteCmd() *cobra.Command {
	return deleteCmd("job", engine.LevelJob, "Delete a job")
}

func deleteCmd(noun string, level engine.Level, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				result, err := e.Delete(ctx, level, id)
				var ce *engine.CascadeError
				if errors.As(err, &ce) {
					// Partial failure: report what was removed before the halt.
					if jerr := printJSONOrPlain(ce.Result); jerr != nil {
						return jerr
					}
					return err
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(result)
				}
				fmt.Printf("deleted %s %s (%d record(s) removed)\n", noun, id, len(result.Deleted))
				return nil
			})
		},
	}
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show counters and the priority job list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				v := e.View(engine.Scope{})
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"open_jobs":     v.OpenJobs,
						"valid_sites":   v.ValidSites,
						"priority_jobs": v.PriorityJobs,
					})
				}
				fmt.Printf("%s\n", cfg.Company.Name)
				fmt.Printf("Open jobs: %d   Active sites: %d\n", v.OpenJobs, v.ValidSites)
				if len(v.PriorityJobs) == 0 {
					fmt.Println("No priority jobs.")
					return nil
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Client", "Site", "Status", "Description"})
				for _, j := range v.PriorityJobs {
					tw.AppendRow(table.Row{j.ID, j.ClientName, j.SiteName, cfg.Catalog.Statuses[j.Status], j.Description})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <kind>",
		Short: "Job lists for printing (materials, quotes, active)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := report.Kind(args[0])
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine, cfg *config.Config) error {
				v := e.View(engine.Scope{})
				rows, err := report.Build(kind, v.Jobs)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Client", "Site", "Type", "Status", "Description", "Offer"})
				for _, j := range rows {
					tw.AppendRow(table.Row{j.ClientName, j.SiteName, cfg.Catalog.JobTypes[j.Type], cfg.Catalog.Statuses[j.Status], j.Description, j.OfferRef})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "Config holds the company name, dataset and the display labels for job types and statuses. A default ritech.yml is written on first use.",
	}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ResolveConfig(viper.GetString("workspace"), viper.GetString("dataset"))
			if err != nil {
				return err
			}
			return printJSONOrPlain(cfg)
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate workspace config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ResolveConfig(viper.GetString("workspace"), viper.GetString("dataset"))
			if err == nil {
				err = cfg.Validate()
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func pinCmd() *cobra.Command {
	p := &cobra.Command{
		Use:   "pin",
		Short: "Device PIN lock",
	}
	p.AddCommand(pinSetCmd())
	p.AddCommand(pinVerifyCmd())
	return p
}

func pinSetCmd() *cobra.Command {
	var value string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the device PIN",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st *store.SQLite, cfg *config.Config) error {
				lock := pin.New(st, cfg.Security.PINMinLength)
				if err := lock.Set(ctx, value); err != nil {
					return err
				}
				fmt.Println("PIN updated")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&value, "pin", "", "numeric PIN")
	_ = cmd.MarkFlagRequired("pin")
	return cmd
}

func pinVerifyCmd() *cobra.Command {
	var value string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the device PIN",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st *store.SQLite, cfg *config.Config) error {
				lock := pin.New(st, cfg.Security.PINMinLength)
				if err := lock.Verify(ctx, value); err != nil {
					return err
				}
				fmt.Println("PIN OK")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&value, "pin", "", "numeric PIN")
	_ = cmd.MarkFlagRequired("pin")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: creates, edits, status changes, deletes.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st *store.SQLite, cfg *config.Config) error {
				evts, err := events.Latest(ctx, st.DB, n, evtType, entityKind)
				if err != nil {
					return err
				}
				return printJSONOrPlain(evts)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind filter")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := app.ResolveConfig(workspace, viper.GetString("dataset"))
			if err != nil {
				return err
			}
			secret, err := app.SigningSecretStrict()
			if err != nil {
				return err
			}
			st := store.NewSQLite(conn)
			authn := auth.NewLocal(secret, viper.GetString("actor-id"))
			e, err := engine.New(st, authn)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
			handler, err := server.New(server.Config{
				Engine:   e,
				Store:    st,
				Pin:      pin.New(st, cfg.Security.PINMinLength),
				BasePath: basePath,
				Auth:     server.AuthConfig{JWTSecret: secret},
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			logger.Info("serving", "addr", addr, "base_path", basePath, "docs", "/docs")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, *engine.Engine, *config.Config) error) error {
	return withStore(ctx, func(ctx context.Context, st *store.SQLite, cfg *config.Config) error {
		authn := auth.NewLocal(app.SigningSecret(), viper.GetString("actor-id"))
		e, err := engine.New(st, authn)
		if err != nil {
			return err
		}
		return fn(ctx, e, cfg)
	})
}

func withStore(ctx context.Context, fn func(context.Context, *store.SQLite, *config.Config) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := app.ResolveConfig(workspace, viper.GetString("dataset"))
	if err != nil {
		return err
	}
	return fn(ctx, store.NewSQLite(conn), cfg)
}

func printJSONOrPlain(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func mark(b bool) string {
	if b {
		return "!"
	}
	return ""
}
