/*
Package cli provides helpers shared by the ghproxy commands.

Output Formatting:

Commands that print results accept --output text|json:

	format, err := cli.ParseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)

Results implementing Texter control their text rendering.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
	return srv.Start(ctx)

Errors:

ConfigError and CommandError carry the failing field or command. ExitCode
maps them to the process exit status: 2 for configuration problems, 1 for
everything else.
*/
package cli
