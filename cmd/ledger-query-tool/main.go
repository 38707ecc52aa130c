package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/spf13/cobra"
)

func main() {
	var addr string

	var rootCmd = &cobra.Command{Use: "ledger-query-tool"}
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "localhost:9000", "ClickHouse address")

	// Recent archived payments.
	var recentCmd = &cobra.Command{
		Use:   "recent",
		Short: "Show the most recently archived payments",
		Run: func(cmd *cobra.Command, args []string) {
			conn := connect(addr)
			defer conn.Close()

			rows, err := conn.Query(context.Background(),
				"SELECT payment_id, method, total_kes, payment_date FROM payment_archive ORDER BY archived_at DESC LIMIT 20")
			if err != nil {
				log.Fatal(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "PAYMENT ID\tMETHOD\tTOTAL KES\tDATE")
			for rows.Next() {
				var id, method string
				var total float64
				var date time.Time
				if err := rows.Scan(&id, &method, &total, &date); err != nil {
					log.Fatal(err)
				}
				fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\n", id, method, total, date.Format("2006-01-02"))
			}
			w.Flush()
		},
	}

	// Collected volume per payment method.
	var volumeCmd = &cobra.Command{
		Use:   "volume",
		Short: "Show collected volume per payment method",
		Run: func(cmd *cobra.Command, args []string) {
			conn := connect(addr)
			defer conn.Close()

			rows, err := conn.Query(context.Background(),
				"SELECT method, count(), sum(total_kes), sum(fee_kes) FROM payment_archive GROUP BY method ORDER BY sum(total_kes) DESC")
			if err != nil {
				log.Fatal(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "METHOD\tCOUNT\tTOTAL KES\tFEES KES")
			for rows.Next() {
				var method string
				var count uint64
				var total, fees float64
				if err := rows.Scan(&method, &count, &total, &fees); err != nil {
					log.Fatal(err)
				}
				fmt.Fprintf(w, "%s\t%d\t%.0f\t%.0f\n", method, count, total, fees)
			}
			w.Flush()
		},
	}

	rootCmd.AddCommand(recentCmd, volumeCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func connect(addr string) clickhouse.Conn {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
	})
	if err != nil {
		log.Fatal(err)
	}
	return conn
}
