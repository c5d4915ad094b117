package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/glad-analysis/internal/aggregate"
	"github.com/robert-malhotra/glad-analysis/internal/alerts"
	"github.com/robert-malhotra/glad-analysis/internal/analysis"
	"github.com/robert-malhotra/glad-analysis/pkg/geojson"
)

// scopeFlags are the mutually exclusive ways of naming an area.
type scopeFlags struct {
	geostore    string
	iso         string
	adm1, adm2  int
	useType     string
	useID       string
	wdpa        string
	geojsonFile string
}

var (
	countScope   scopeFlags
	countPeriod  string
	countBy      string
	countConfirm bool
	countGrouped bool
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count alerts inside an area",
	Example: `  alertctl count --geostore 7f2e... --period 2020-01-01,2020-03-31
  alertctl count -d terrai --iso BRA --adm1 12 --by month
  alertctl count --geojson area.json --confirmed-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := datasetKind()
		if err != nil {
			return err
		}
		scope, err := countScope.scope(os.ReadFile)
		if err != nil {
			return err
		}
		if _, ok := aggregate.ParseGranularity(countBy); !ok {
			return fmt.Errorf("unknown aggregation %q", countBy)
		}

		req, err := analysis.NewRequest(kind, analysis.Common{
			Period:      countPeriod,
			Scope:       scope,
			Aggregate:   countBy != "",
			AggregateBy: countBy,
		}, countConfirm)
		if err != nil {
			return err
		}

		svc, err := newService(countGrouped)
		if err != nil {
			return err
		}
		doc, err := svc.Analyze(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), doc)
	},
}

func init() {
	f := countCmd.Flags()
	f.StringVar(&countScope.geostore, "geostore", "", "Geostore id of the area")
	f.StringVar(&countScope.iso, "iso", "", "Country ISO code")
	f.IntVar(&countScope.adm1, "adm1", 0, "State id (with --iso)")
	f.IntVar(&countScope.adm2, "adm2", 0, "District id (with --iso and --adm1)")
	f.StringVar(&countScope.useType, "use-type", "", "Land-use layer: mining, oilpalm, fiber or logging")
	f.StringVar(&countScope.useID, "use-id", "", "Land-use concession id (with --use-type)")
	f.StringVar(&countScope.wdpa, "wdpa", "", "WDPA protected area id")
	f.StringVar(&countScope.geojsonFile, "geojson", "", "Path to a GeoJSON polygon file")

	f.StringVarP(&countPeriod, "period", "p", "", "START,END dates (default: all indexed data)")
	f.StringVar(&countBy, "by", "", "Return a time series: day, week, month, quarter or year")
	f.BoolVar(&countConfirm, "confirmed-only", false, "GLAD only: keep confirmed alerts")
	f.BoolVar(&countGrouped, "grouped", false, "Aggregate from per-day counts instead of alert rows")
}

// scope turns the flags into exactly one Scope. readFile loads --geojson.
func (f scopeFlags) scope(readFile func(string) ([]byte, error)) (alerts.Scope, error) {
	var set []string
	if f.geostore != "" {
		set = append(set, "--geostore")
	}
	if f.iso != "" {
		set = append(set, "--iso")
	}
	if f.useType != "" || f.useID != "" {
		set = append(set, "--use-type")
	}
	if f.wdpa != "" {
		set = append(set, "--wdpa")
	}
	if f.geojsonFile != "" {
		set = append(set, "--geojson")
	}

	switch len(set) {
	case 0:
		return alerts.Scope{}, errors.New("an area is required: --geostore, --iso, --use-type, --wdpa or --geojson")
	case 1:
	default:
		return alerts.Scope{}, fmt.Errorf("only one area may be given, got %v", set)
	}

	switch {
	case f.geostore != "":
		return alerts.GeostoreScope(f.geostore), nil
	case f.iso != "":
		return alerts.AdminScope(f.iso, f.adm1, f.adm2), nil
	case f.wdpa != "":
		return alerts.ProtectedAreaScope(f.wdpa), nil
	case f.geojsonFile != "":
		raw, err := readFile(f.geojsonFile)
		if err != nil {
			return alerts.Scope{}, err
		}
		area, err := geojson.ParseArea(raw)
		if err != nil {
			return alerts.Scope{}, err
		}
		geom, err := json.Marshal(area)
		if err != nil {
			return alerts.Scope{}, err
		}
		return alerts.GeometryScope(geom), nil
	default:
		if f.useType == "" || f.useID == "" {
			return alerts.Scope{}, errors.New("--use-type and --use-id must be given together")
		}
		return alerts.LandUseScope(f.useType, f.useID), nil
	}
}
