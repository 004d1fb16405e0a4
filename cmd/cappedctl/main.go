// Command cappedctl is a small operator CLI for poking at a capped
// collection: insert/receive/pop-oldest/info/drop/clear/ping, against a live Redis
// instance, handy for manual verification and demos.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	cappedcollection "github.com/trackingsoft/go-cappedcollection"
)

var (
	redisAddr  string
	collection string
	prefix     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cappedctl",
		Short: "Inspect and exercise a Redis-backed capped collection",
	}
	root.PersistentFlags().StringVar(&redisAddr, "redis", "127.0.0.1:6379", "Redis address")
	root.PersistentFlags().StringVar(&collection, "collection", "default", "collection name")
	root.PersistentFlags().StringVar(&prefix, "prefix", "cappedctl", "key namespace prefix")

	root.AddCommand(
		newInsertCmd(),
		newReceiveCmd(),
		newPopOldestCmd(),
		newInfoCmd(),
		newDropCmd(),
		newClearCmd(),
		newPingCmd(),
	)
	return root
}

func openCollection(ctx context.Context) (*cappedcollection.Collection, *redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg := cappedcollection.NewConfig(cappedcollection.WithPrefix(prefix))
	c, err := cappedcollection.Open(ctx, rdb, collection, cfg, cappedcollection.WithLogger(log))
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return c, rdb, nil
}

func newInsertCmd() *cobra.Command {
	var dataTime float64
	cmd := &cobra.Command{
		Use:   "insert <list> <data-id> <data>",
		Short: "Insert one item into a list",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, rdb, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer rdb.Close()
			l, err := c.Insert(ctx, args[0], args[1], []byte(args[2]), dataTime)
			if err != nil {
				return err
			}
			fmt.Println("inserted into list", l)
			return nil
		},
	}
	cmd.Flags().Float64Var(&dataTime, "time", 0, "data time (required, > 0)")
	return cmd
}

func newReceiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receive <list> [data-id]",
		Short: "Read one item, or every item, from a list",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, rdb, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer rdb.Close()
			if len(args) == 2 {
				data, err := c.Receive(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			items, err := c.ReceiveAll(ctx, args[0])
			if err != nil {
				return err
			}
			for _, it := range items {
				fmt.Printf("%s\t%s\n", it.DataID, it.Data)
			}
			return nil
		},
	}
	return cmd
}

func newPopOldestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pop-oldest",
		Short: "Remove and print the globally oldest item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, rdb, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer rdb.Close()
			p, err := c.PopOldest(ctx)
			if err != nil {
				return err
			}
			if !p.Found {
				fmt.Println("collection is empty")
				return nil
			}
			fmt.Printf("%s\t%s\n", p.List, p.Data)
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [list]",
		Short: "Print collection or list info",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, rdb, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer rdb.Close()
			if len(args) == 1 {
				info, err := c.ListInfo(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("items=%d oldest_time=%s\n", info.Items, formatTime(info.OldestTime, info.HasOldestTime))
				return nil
			}
			info, err := c.CollectionInfo(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("lists=%d items=%d older_allowed=%t last_removed_time=%s oldest_time=%s\n",
				info.Lists, info.Items, info.OlderAllowed,
				strconv.FormatFloat(info.LastRemovedTime, 'f', 4, 64),
				formatTime(info.OldestTime, info.HasOldestTime))
			return nil
		},
	}
}

func newDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Delete the collection entirely",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, rdb, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer rdb.Close()
			n, err := c.DropCollection(ctx)
			if err != nil {
				return err
			}
			fmt.Println("deleted keys:", n)
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every list but keep the collection's configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, rdb, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer rdb.Close()
			n, err := c.ClearCollection(ctx)
			if err != nil {
				return err
			}
			fmt.Println("deleted keys:", n)
			return nil
		},
	}
}

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that Redis is reachable and its memory policy is compatible",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, rdb, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer rdb.Close()
			ok, err := c.RedisConfigOK(ctx)
			if err != nil {
				return err
			}
			fmt.Println("config ok:", ok)
			return nil
		},
	}
}

func formatTime(t float64, has bool) string {
	if !has {
		return "-"
	}
	return strconv.FormatFloat(t, 'f', 4, 64)
}
