package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"diet-coach/internal/models"
	"diet-coach/internal/prompt"
)

var (
	profileUser    string
	profileTarget  int
	profilePersona string
	profileWeight  float64
	profileGoal    float64
	weighInKg      float64
	weighInDate    string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the user's calorie target, weights and persona",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.store.GetProfile(cmd.Context(), profileUser)
		if errors.Is(err, models.ErrNotFound) {
			p = &models.Profile{UserID: profileUser, TargetCalories: models.DefaultTargetCalories}
		} else if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		persona := prompt.Resolve(p.Persona, a.cfg.DefaultPersona)
		fmt.Fprintf(out, "사용자: %s\n목표: %dkcal\n페르소나: %s (%s)\n", p.UserID, p.TargetCalories, persona.Name, persona.ID)
		if p.CurrentWeightKg != nil {
			fmt.Fprintf(out, "현재 체중: %.1fkg\n", *p.CurrentWeightKg)
		}
		if p.GoalWeightKg != nil {
			fmt.Fprintf(out, "목표 체중: %.1fkg\n", *p.GoalWeightKg)
		}
		today := time.Now().In(a.location())
		weights, err := a.store.RecentWeights(cmd.Context(), profileUser,
			today.AddDate(0, 0, -6).Format("2006-01-02"), today.Format("2006-01-02"))
		if err != nil {
			return err
		}
		if len(weights) > 0 {
			fmt.Fprintf(out, "최근 7일 체중: %s\n", models.TrendOf(weights).Label())
		}
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the user's profile; unset flags keep their current value",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("persona") {
			if _, ok := prompt.Lookup(profilePersona); !ok {
				return errors.Errorf("unknown persona %q", profilePersona)
			}
		}
		if flags.Changed("target") && profileTarget <= 0 {
			return errors.New("target must be positive")
		}

		a, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.store.GetProfile(cmd.Context(), profileUser)
		if errors.Is(err, models.ErrNotFound) {
			p = &models.Profile{UserID: profileUser, TargetCalories: models.DefaultTargetCalories}
		} else if err != nil {
			return err
		}
		if flags.Changed("target") {
			p.TargetCalories = profileTarget
		}
		if flags.Changed("persona") {
			p.Persona = profilePersona
		}
		if flags.Changed("weight") {
			p.CurrentWeightKg = &profileWeight
		}
		if flags.Changed("goal") {
			p.GoalWeightKg = &profileGoal
		}
		if err := a.store.UpsertProfile(cmd.Context(), p); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), actionStyle.Render("프로필을 저장했습니다."))
		return nil
	},
}

var profileWeighCmd = &cobra.Command{
	Use:   "weigh",
	Short: "Record a weigh-in for the weight trend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if weighInKg <= 0 {
			return errors.New("--kg must be positive")
		}
		a, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		date := weighInDate
		if date == "" {
			date = time.Now().In(a.location()).Format("2006-01-02")
		}
		if err := a.store.LogWeight(cmd.Context(), profileUser, date, weighInKg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), actionStyle.Render(fmt.Sprintf("%s 체중 %.1fkg을 기록했습니다.", date, weighInKg)))
		return nil
	},
}

func init() {
	profileCmd.PersistentFlags().StringVarP(&profileUser, "user", "u", "local", "User ID")
	profileSetCmd.Flags().IntVar(&profileTarget, "target", 0, "Daily calorie target")
	profileSetCmd.Flags().StringVar(&profilePersona, "persona", "", "Coaching persona: cold, bright or strict")
	profileSetCmd.Flags().Float64Var(&profileWeight, "weight", 0, "Current weight in kg")
	profileSetCmd.Flags().Float64Var(&profileGoal, "goal", 0, "Goal weight in kg")
	profileWeighCmd.Flags().Float64Var(&weighInKg, "kg", 0, "Weight in kg")
	profileWeighCmd.Flags().StringVar(&weighInDate, "date", "", "Date as YYYY-MM-DD (default today)")
	profileCmd.AddCommand(profileSetCmd, profileWeighCmd)
}
