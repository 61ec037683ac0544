package curve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fanforge/fanforged/cmd/global"
	"github.com/fanforge/fanforged/internal/configuration"
	"github.com/fanforge/fanforged/internal/control"
	"github.com/fanforge/fanforged/internal/ui"
	"github.com/guptarohit/asciigraph"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Plot the fan curve to console",
	Long:  `Plots the active curve of a running daemon, or the default curve when no daemon is reachable`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		configuration.LoadConfig()

		doc, err := fetchActiveConfig()
		if err != nil {
			ui.Warning("No running daemon found (%v), previewing the default curve", err)
			defaultDoc := control.DefaultConfig().Document()
			doc = &defaultDoc
		}

		config, errs := docToConfig(*doc)
		if errs != nil {
			return errs
		}

		// print table
		tab := table.Table{
			Headers: []string{"Mode", "Smoothing", "Points", "Min PWM", "Max PWM"},
			Rows: [][]string{
				{
					string(config.Mode),
					string(config.SmoothingMode),
					strconv.Itoa(config.Curve.Len()),
					fmt.Sprintf("%.0f", config.MinPwm),
					fmt.Sprintf("%.0f", config.MaxPwm),
				},
			},
		}
		var buf bytes.Buffer
		tableErr := tab.WriteTable(&buf, &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		})
		if tableErr != nil {
			panic(tableErr)
		}
		ui.Printfln(buf.String())

		values := config.Curve.Sample(config.SmoothingMode)

		caption := "PWM % / Temperature"
		graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption(caption))
		ui.Printfln(graph)

		return nil
	},
}

// fetchActiveConfig asks a running daemon for its active control config.
func fetchActiveConfig() (*control.ConfigDocument, error) {
	host := configuration.CurrentConfig.Api.Host
	port := configuration.CurrentConfig.Api.Port
	url := fmt.Sprintf("http://%s:%d/api/config/", host, port)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var doc control.ConfigDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func docToConfig(doc control.ConfigDocument) (control.Config, error) {
	store := control.NewStore(control.DefaultConfig())
	return store.Apply(doc.ToRequest())
}

func init() {
	Command.AddCommand(previewCmd)
}
