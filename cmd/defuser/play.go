package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/AaronLay10/DefusalEngine/internal/level"
	"github.com/AaronLay10/DefusalEngine/internal/profile"
	"github.com/AaronLay10/DefusalEngine/internal/puzzle"
	"github.com/AaronLay10/DefusalEngine/internal/session"
)

var errLocked = errors.New("level is locked")

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a session, reading commands from stdin",
	Long: `Play one session. Commands are read line by line from stdin; type
"help" for the list. The result is settled into the profile file.`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().String("profile", "data/profile.json", "profile file (DEFUSAL_PROFILE)")
	_ = viper.BindPFlag("profile", playCmd.Flags().Lookup("profile"))
}

const helpText = `commands (m is the module index):
  view                      show the bomb
  cut m i                   cut wire i
  label m WORD              press a word label
  symbol m SYM              press a keypad symbol
  tap m | hold m | release m
  color m R|G|B|Y           press a Simon pad
  tune m DELTA              move the Morse dial
  tx m [FREQ]               transmit, on the dial value by default
  cycle m COL DELTA         rotate a password column
  submit m                  submit the password
  move m UP|DOWN|LEFT|RIGHT walk the maze
  ccut m i                  cut complex wire i
  answer m EVET|HAYIR       answer the venting prompt
  rotate m UP|DOWN|LEFT|RIGHT
  abort                     give up without a result`

func runPlay(cmd *cobra.Command, args []string) error {
	lvl := viper.GetInt("level")
	pack := level.PackID(viper.GetString("pack"))

	ledger := profile.NewLedger(profile.FileStore{Path: viper.GetString("profile")}, logger.Named("profile"))
	if !ledger.Profile().Unlocked(pack, lvl) {
		return fmt.Errorf("%w: %s level %d", errLocked, pack, lvl)
	}

	s, err := session.Start(lvl, pack, rngFor(viper.GetUint64("seed")))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	run := session.Run(ctx, s,
		session.WithReporters(ledger),
		session.WithLogger(logger.Named("session")))

	if err := play(ctx, run, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		return err
	}

	state, sett, settled := run.Result()
	out := cmd.OutOrStdout()
	switch {
	case state == session.Won:
		fmt.Fprintf(out, "DEFUSED with %s left. Reward: %d\n",
			session.FormatClock(sett.TimeLeft), profile.Reward(sett.Level, sett.TimeLeft))
	case state == session.Lost:
		fmt.Fprintln(out, "BOOM.")
	default:
		fmt.Fprintln(out, "Aborted.")
	}
	if settled {
		p := ledger.Profile()
		logger.Debug("profile updated", zap.Int("money", p.Money), zap.Int("max_level", p.MaxLevel))
		fmt.Fprintf(out, "money: %d  max level: %d\n", p.Money, p.MaxLevel)
	}
	return nil
}

// play feeds commands from in to run until the session ends or in is
// exhausted. Reaching the end of in aborts the session.
func play(ctx context.Context, run *session.Runner, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-run.Done():
				return
			}
		}
	}()

	if view, err := run.View(ctx); err == nil {
		printView(out, view)
	}

	for {
		select {
		case <-run.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				run.Abort()
				<-run.Done()
				return nil
			}
			if err := handleLine(ctx, run, line, out); err != nil {
				fmt.Fprintln(out, "error:", err)
			}
		}
	}
}

func handleLine(ctx context.Context, run *session.Runner, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch strings.ToLower(fields[0]) {
	case "help", "?":
		fmt.Fprintln(out, helpText)
		return nil
	case "view", "status":
		view, err := run.View(ctx)
		if err != nil {
			return err
		}
		printView(out, view)
		return nil
	case "abort", "quit", "exit":
		run.Abort()
		<-run.Done()
		return nil
	}

	idx, action, err := parseCommand(fields)
	if err != nil {
		return err
	}
	sig, view, err := run.Do(ctx, idx, action)
	if err != nil && !errors.Is(err, session.ErrNotActive) {
		return err
	}
	printSignal(out, sig, view)
	return nil
}

var verbs = []string{
	"cut", "ccut", "label", "symbol", "tap", "hold", "release", "color",
	"tune", "tx", "cycle", "submit", "move", "rotate", "answer",
}

// parseCommand turns one command line into a module index and action.
func parseCommand(fields []string) (int, puzzle.Action, error) {
	verb := strings.ToLower(fields[0])
	if !slices.Contains(verbs, verb) {
		return 0, nil, fmt.Errorf("unknown command %q (try help)", verb)
	}
	args := fields[1:]
	if len(args) == 0 {
		return 0, nil, fmt.Errorf("%s: missing module index", verb)
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, nil, fmt.Errorf("%s: bad module index %q", verb, args[0])
	}
	args = args[1:]

	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s: expected %d argument(s) after the module index", verb, n)
		}
		return nil
	}
	intArg := func(i int) (int, error) {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return 0, fmt.Errorf("%s: bad number %q", verb, args[i])
		}
		return v, nil
	}
	floatArg := func(i int) (float64, error) {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return 0, fmt.Errorf("%s: bad number %q", verb, args[i])
		}
		return v, nil
	}

	switch verb {
	case "cut", "ccut":
		if err := need(1); err != nil {
			return 0, nil, err
		}
		i, err := intArg(0)
		if err != nil {
			return 0, nil, err
		}
		if verb == "ccut" {
			return idx, puzzle.CutComplexWire{Index: i}, nil
		}
		return idx, puzzle.CutWire{Index: i}, nil
	case "label":
		if err := need(1); err != nil {
			return 0, nil, err
		}
		return idx, puzzle.PressLabel{Label: strings.ToUpper(strings.Join(args, " "))}, nil
	case "symbol":
		if err := need(1); err != nil {
			return 0, nil, err
		}
		return idx, puzzle.PressSymbol{Symbol: args[0]}, nil
	case "tap":
		return idx, puzzle.TapButton{}, nil
	case "hold":
		return idx, puzzle.HoldButton{}, nil
	case "release":
		return idx, puzzle.ReleaseButton{}, nil
	case "color":
		if err := need(1); err != nil {
			return 0, nil, err
		}
		return idx, puzzle.PressColor{Color: puzzle.SimonColor(strings.ToUpper(args[0]))}, nil
	case "tune":
		if err := need(1); err != nil {
			return 0, nil, err
		}
		d, err := floatArg(0)
		if err != nil {
			return 0, nil, err
		}
		return idx, puzzle.TuneFrequency{Delta: d}, nil
	case "tx":
		if len(args) == 0 {
			return idx, puzzle.SubmitFrequency{UseCurrent: true}, nil
		}
		f, err := floatArg(0)
		if err != nil {
			return 0, nil, err
		}
		return idx, puzzle.SubmitFrequency{Frequency: f}, nil
	case "cycle":
		if err := need(2); err != nil {
			return 0, nil, err
		}
		col, err := intArg(0)
		if err != nil {
			return 0, nil, err
		}
		d, err := intArg(1)
		if err != nil {
			return 0, nil, err
		}
		return idx, puzzle.CyclePassword{Column: col, Delta: d}, nil
	case "submit":
		return idx, puzzle.SubmitPassword{}, nil
	case "move", "rotate":
		if err := need(1); err != nil {
			return 0, nil, err
		}
		d, ok := puzzle.ParseDirection(args[0])
		if !ok {
			return 0, nil, fmt.Errorf("%s: bad direction %q", verb, args[0])
		}
		if verb == "rotate" {
			return idx, puzzle.RotateKnob{Position: d}, nil
		}
		return idx, puzzle.MoveMaze{Direction: d}, nil
	case "answer":
		if err := need(1); err != nil {
			return 0, nil, err
		}
		return idx, puzzle.AnswerVenting{Answer: args[0]}, nil
	}
	return 0, nil, fmt.Errorf("unknown command %q (try help)", verb)
}

func printView(w io.Writer, v session.View) {
	fmt.Fprintf(w, "%s  strikes %d/%d  %s level %d  [%s]\n",
		v.Clock, v.Strikes, v.MaxStrikes, v.Pack, v.Level, v.State)
	ctx := v.Context
	fmt.Fprintf(w, "serial odd: %t  batteries: %t  indicator: %t  parallel port: %t\n",
		ctx.SerialOdd, ctx.HasBatteries, ctx.HasIndicator, ctx.HasParallelPort)
	for i, m := range v.Modules {
		mark := " "
		if m.Solved {
			mark = "x"
		}
		state, _ := json.Marshal(m.State)
		fmt.Fprintf(w, "[%s] %d %-13s %s\n", mark, i, m.Kind, state)
	}
}

func printSignal(w io.Writer, sig session.Signal, v session.View) {
	switch {
	case sig.StrikeOccurred:
		fmt.Fprintf(w, "STRIKE! %d/%d, %s left\n", v.Strikes, v.MaxStrikes, v.Clock)
	case sig.ModuleSolved:
		fmt.Fprintf(w, "module %d solved\n", sig.Module)
	case sig.Outcome == puzzle.Ignored && !sig.Terminal:
		fmt.Fprintln(w, "nothing happens")
	case sig.Outcome == puzzle.Progressed:
		fmt.Fprintln(w, "ok")
	}
	if !sig.Terminal {
		printView(w, v)
	}
}

// rngFor is the random source for seed, or an entropy-seeded one for 0.
func rngFor(seed uint64) *rand.Rand {
	if seed == 0 {
		return puzzle.RandomRand()
	}
	return puzzle.NewRand(seed)
}
