/*
Package cli provides helpers shared by the judgment command: typed errors,
audit record formatters and signal handling.

Output Formatting:

Audit query results can be rendered as text, JSON or CSV:

	formatter, err := cli.NewFormatter(cli.FormatCSV)
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stdout, records); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
