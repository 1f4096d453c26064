package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/batch"
)

var medicineCmd = &cobra.Command{
	Use:     "medicine <name>",
	Aliases: []string{"med"},
	Short:   "Describe a medicine: uses, dosage, price range and side effects",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdvisory(cmd.Context(), func(lang advisory.Language) advisory.Request {
			return advisory.Request{Kind: advisory.KindMedicineLookup, Language: lang, Text: strings.Join(args, " ")}
		})
	},
}

var symptomsCmd = &cobra.Command{
	Use:   "symptoms <description>",
	Short: "Triage symptoms into possible conditions, advice and urgency",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdvisory(cmd.Context(), func(lang advisory.Language) advisory.Request {
			return advisory.Request{Kind: advisory.KindSymptomAnalysis, Language: lang, Text: strings.Join(args, " ")}
		})
	},
}

var interactionsCmd = &cobra.Command{
	Use:   "interactions <medicine> <medicine>...",
	Short: "Check medicines for interactions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdvisory(cmd.Context(), func(lang advisory.Language) advisory.Request {
			return advisory.Request{Kind: advisory.KindInteractionCheck, Language: lang, Medicines: args}
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <medicine>...",
	Short: "Arrange medicines into a daily dosage schedule",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdvisory(cmd.Context(), func(lang advisory.Language) advisory.Request {
			return advisory.Request{Kind: advisory.KindDosageSchedule, Language: lang, Medicines: args}
		})
	},
}

var identifyCmd = &cobra.Command{
	Use:   "identify <image-or-glob>",
	Short: "Identify a medicine from a photo of its packaging",
	Long: `Identify a medicine from a photo. The argument may be a glob such as
"photos/**/*.jpg", in which case every matching image is identified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := batch.ExpandImages("", args[0])
		if err != nil {
			return err
		}
		reqs := make([]advisory.Request, 0, len(paths))
		for _, p := range paths {
			img, err := advisory.LoadImage(p)
			if err != nil {
				return err
			}
			reqs = append(reqs, advisory.Request{Kind: advisory.KindImageIdentify, Image: img, Text: p})
		}
		return runAdvisories(cmd.Context(), func(advisory.Language) []advisory.Request { return reqs })
	},
}

var (
	pharmacyLat float64
	pharmacyLng float64
)

var pharmaciesCmd = &cobra.Command{
	Use:   "pharmacies --lat <latitude> --lng <longitude>",
	Short: "Find pharmacies near a location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdvisory(cmd.Context(), func(advisory.Language) advisory.Request {
			return advisory.Request{
				Kind:     advisory.KindPharmacyLookup,
				Location: advisory.Coordinates{Lat: pharmacyLat, Lng: pharmacyLng},
			}
		})
	},
}

func init() {
	pharmaciesCmd.Flags().Float64Var(&pharmacyLat, "lat", 0, "latitude")
	pharmaciesCmd.Flags().Float64Var(&pharmacyLng, "lng", 0, "longitude")
	pharmaciesCmd.MarkFlagRequired("lat")
	pharmaciesCmd.MarkFlagRequired("lng")

	rootCmd.AddCommand(medicineCmd, symptomsCmd, interactionsCmd, scheduleCmd, identifyCmd, pharmaciesCmd)
}
