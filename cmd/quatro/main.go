package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ledezmar/quatro/board"
	"github.com/ledezmar/quatro/config"
	"github.com/ledezmar/quatro/engine"
)

//go:embed banner.txt
var banner string

func main() {
	cfg := config.New()

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	var logger zerolog.Logger
	if cfg.GetBool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	log.Logger = logger

	args := os.Args[1:]

	// API mode replays a digit string of columns and prints only the
	// engine's reply, for driving quatro from another program.
	if len(args) >= 2 && args[0] == "--api" {
		if err := apiMove(cfg, args[1]); err != nil {
			log.Err(err).Msg("api-mode-failed")
			os.Exit(1)
		}
		return
	}

	if len(args) >= 1 && args[0] == "buildbook" {
		if err := buildBook(cfg, args[1:]); err != nil {
			log.Err(err).Msg("book-build-failed")
			os.Exit(1)
		}
		return
	}

	fmt.Println(banner)
	if err := playLoop(cfg); err != nil {
		log.Err(err).Msg("game-loop-failed")
		os.Exit(1)
	}
}

func newEngine(cfg *config.Config) *engine.Engine {
	e := engine.NewWithTableBits(cfg.GetInt("tt-bits"))
	if err := e.LoadBook(cfg.GetString("book-path")); err != nil {
		log.Warn().Err(err).Msg("book-load-failed")
	}
	return e
}

func apiMove(cfg *config.Config, history string) error {
	p, err := board.FromMoves(history)
	if err != nil {
		return err
	}
	e := newEngine(cfg)
	move := e.BestMove(context.Background(), p, board.MaxMoves, cfg.GetBool("use-old-eval"))
	fmt.Println(move)
	return nil
}

func buildBook(cfg *config.Config, args []string) error {
	maxMoves := cfg.GetInt("book-max-moves")
	searchDepth := cfg.GetInt("book-search-depth")
	if len(args) >= 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		maxMoves = n
	}
	if len(args) >= 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		searchDepth = n
	}
	e := newEngine(cfg)
	return e.BuildBook(context.Background(), cfg.GetString("book-path"),
		maxMoves, searchDepth, cfg.GetBool("use-old-eval"))
}

func playLoop(cfg *config.Config) error {
	rl, err := readline.New("move (0-6, q to quit)> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	e := newEngine(cfg)
	maxDepth := cfg.GetInt("max-depth")
	useOldEval := cfg.GetBool("use-old-eval")
	var p board.Position
	fmt.Println(p)

	for {
		if p.SideToMove() == 0 {
			line, err := rl.Readline()
			if err != nil { // io.EOF or interrupt
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "q" || line == "quit" {
				return nil
			}
			col, err := strconv.Atoi(line)
			if err != nil || !p.Apply(col) {
				fmt.Println("illegal move, try again")
				continue
			}
		} else {
			fmt.Println("thinking...")
			col := e.BestMove(context.Background(), p, maxDepth, useOldEval)
			if col == board.NoColumn {
				return nil
			}
			p.Apply(col)
			fmt.Printf("engine plays column %d\n", col)
		}

		fmt.Println(p)

		if p.HasWin() {
			if p.NumMoves()%2 == 1 {
				fmt.Println("*** YOU WIN ***")
			} else {
				fmt.Println("*** ENGINE WINS ***")
			}
		} else if p.NumMoves() == board.MaxMoves {
			fmt.Println("*** DRAW ***")
		} else {
			continue
		}

		if !askAgain(rl) {
			return nil
		}
		e = newEngine(cfg) // fresh engine: strong-solver mode is sticky per game
		p = board.Position{}
		fmt.Println(p)
	}
}

func askAgain(rl *readline.Instance) bool {
	rl.SetPrompt("play again? (y/n)> ")
	defer rl.SetPrompt("move (0-6, q to quit)> ")
	for {
		line, err := rl.Readline()
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}
