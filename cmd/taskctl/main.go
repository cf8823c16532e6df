// taskctl is an operations CLI for inspecting and seeding the shared task
// table directly. It is not part of the request path.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskline/internal/domain"
	"taskline/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "taskctl",
	Short: "Taskline operations CLI",
	Long: `taskctl reads and seeds the shared task table for one tenant.
It talks to the store directly and bypasses the API authorizer; use it for
operations and local development only.`,
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
	viper.SetEnvPrefix("TASKLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("tenant", "t", "", "tenant id")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("table", "", "table name")
	rootCmd.PersistentFlags().String("gsi", "GSI1", "secondary index name")
	rootCmd.PersistentFlags().String("endpoint", "", "store endpoint override (local development)")
	_ = viper.BindPFlag("tenant", rootCmd.PersistentFlags().Lookup("tenant"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("table", rootCmd.PersistentFlags().Lookup("table"))
	_ = viper.BindPFlag("gsi", rootCmd.PersistentFlags().Lookup("gsi"))
	_ = viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
}

func registerCommands() {
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(metricsCmd())
	rootCmd.AddCommand(auditCmd())
}

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Inspect and seed tasks"}
	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskShowCmd())
	cmd.AddCommand(taskSeedCmd())
	return cmd
}

func taskListCmd() *cobra.Command {
	var status string
	var limit int32
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a tenant's tasks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, tenant string) error {
				res, err := s.ListTasks(ctx, tenant, store.ListOptions{Status: status, Limit: limit})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res.Tasks)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Assigned To", "Updated"})
				for _, t := range res.Tasks {
					tw.AppendRow(table.Row{t.TaskID, t.Title, t.Status, t.Priority, t.AssignedTo, t.UpdatedAt})
				}
				tw.Render()
				if res.HasMore {
					fmt.Println("(more results available)")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().Int32Var(&limit, "limit", 0, "max results")
	return cmd
}

func taskShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a single task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, tenant string) error {
				t, err := s.GetTask(ctx, tenant, args[0])
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
	return cmd
}

func taskSeedCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write demo tasks for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, tenant string) error {
				statuses := []string{domain.StatusOpen, domain.StatusInProgress, domain.StatusDone}
				priorities := []string{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh}
				for i := 0; i < count; i++ {
					now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
					t := domain.Task{
						TaskID:    uuid.NewString(),
						TenantID:  tenant,
						Title:     fmt.Sprintf("Seed task %d", i+1),
						Status:    statuses[i%len(statuses)],
						Priority:  priorities[i%len(priorities)],
						CreatedBy: "taskctl",
						CreatedAt: now,
						UpdatedAt: now,
					}
					if err := s.PutTask(ctx, t); err != nil {
						return err
					}
					fmt.Println("created", t.TaskID)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 5, "number of tasks to create")
	return cmd
}

func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show a tenant's task counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, tenant string) error {
				m, err := s.GetMetrics(ctx, tenant)
				if err != nil {
					return err
				}
				return printJSON(m)
			})
		},
	}
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "audit", Short: "Inspect the audit trail"}
	cmd.AddCommand(auditTailCmd())
	return cmd
}

func auditTailCmd() *cobra.Command {
	var limit int32
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent audit records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, tenant string) error {
				records, err := s.ListAudit(ctx, tenant, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(records)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Timestamp", "Action", "Resource", "User"})
				for _, r := range records {
					tw.AppendRow(table.Row{r.Timestamp, r.Action, r.ResourceType + "/" + r.ResourceID, r.UserID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int32Var(&limit, "limit", 20, "max records")
	return cmd
}

// --- helpers ---

func withStore(ctx context.Context, fn func(context.Context, *store.Store, string) error) error {
	tenant := viper.GetString("tenant")
	if tenant == "" {
		return fmt.Errorf("--tenant required")
	}
	tableName := viper.GetString("table")
	if tableName == "" {
		return fmt.Errorf("--table or TASKLINE_TABLE required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if ep := viper.GetString("endpoint"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
	})
	return fn(ctx, store.New(client, tableName, viper.GetString("gsi")), tenant)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
