package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"voyager.com/tracker/importer"
	"voyager.com/tracker/internal/idcache"
	"voyager.com/tracker/notify"
	"voyager.com/tracker/parser"
	"voyager.com/tracker/rest"
	"voyager.com/tracker/stats"
	"voyager.com/tracker/store"
	"voyager.com/tracker/util"
)

var configFile *string
var importPath *string
var rebuildCache *bool
var serveStats *bool
var mainLogger = log.With().Str("logger_name", "main::main").Logger()

const idCacheSize = 10000

func init() {
	configFile = flag.String("config", "", "YAML file with import options")
	importPath = flag.String("import", "", "hand history file or directory to import")
	rebuildCache = flag.Bool("rebuild-cache", false, "rebuild the hud cache from stored hands")
	serveStats = flag.Bool("serve", false, "serve the statistics read API")
}

func main() {
	err := run()
	if err != nil {
		mainLogger.Error().Msg(err.Error())
		os.Exit(1)
	}
}

func run() error {
	logLevel := util.Env.GetZeroLogLogLevel()
	fmt.Printf("Setting log level to %s\n", logLevel)
	zerolog.SetGlobalLevel(logLevel)
	flag.Parse()

	config := util.DefaultImportConfig()
	if *configFile != "" {
		var err error
		config, err = util.ParseImportConfig(*configFile)
		if err != nil {
			return errors.Wrap(err, "Error while parsing import config")
		}
	}

	st, err := store.Open(util.Env.GetDBDriver(), util.Env.GetDSN())
	if err != nil {
		return err
	}
	defer st.Close()

	ids, err := idcache.NewCache(idCacheSize, st)
	if err != nil {
		return err
	}
	maintainer := stats.NewMaintainer(st, config.UseDateInHudCache)

	if *rebuildCache {
		return rebuildHudCache(st, maintainer, config)
	}
	if *importPath != "" {
		if err := runImport(st, ids, maintainer, config); err != nil {
			return err
		}
	}
	if *serveStats {
		heroID := resolveHero(st, config)
		reader := stats.NewReader(st, config.HudDays, config.HeroHudDays)
		rest.RunRestServer(config.RestAddr, reader, heroID)
	}
	return nil
}

func rebuildHudCache(st *store.Store, maintainer *stats.Maintainer, config util.ImportConfig) error {
	var heroIDs []uint64
	if config.HeroName != "" {
		if id, ok, err := st.FindPlayer(config.SiteID, config.HeroName); err != nil {
			return err
		} else if ok {
			heroIDs = append(heroIDs, id)
		}
	}
	now := time.Now()
	heroStart := now.AddDate(0, 0, -config.HeroHudDays)
	villainStart := now.AddDate(0, 0, -config.HudDays)
	return maintainer.RebuildAll(heroIDs, heroStart, villainStart)
}

func resolveHero(st *store.Store, config util.ImportConfig) uint64 {
	if config.HeroName == "" {
		return 0
	}
	id, ok, err := st.FindPlayer(config.SiteID, config.HeroName)
	if err != nil || !ok {
		mainLogger.Warn().Msgf("Hero %s not found for site %d", config.HeroName, config.SiteID)
		return 0
	}
	return id
}

func runImport(st *store.Store, ids *idcache.Cache, maintainer *stats.Maintainer, config util.ImportConfig) error {
	files, err := collectFiles(*importPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		mainLogger.Warn().Msgf("No hand history files under %s", *importPath)
		return nil
	}

	var notifier *notify.Notifier
	if addr := util.Env.GetRedisAddr(); addr != "" {
		notifier, err = notify.NewNotifier(addr, util.Env.GetRedisPW(), util.Env.GetRedisDB(), config.RedisChannel)
		if err != nil {
			return err
		}
		defer notifier.Close()
	}

	queue := importer.NewQueue(config.QueueSize)
	imp := importer.NewImporter(st, ids, maintainer, notifier, config, queue)

	type result struct {
		summary importer.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := imp.Run(context.Background())
		done <- result{summary: summary, err: err}
	}()

	skipped := produceHands(files, config, queue)
	queue.Finish()

	r := <-done
	if r.err != nil {
		return r.err
	}
	fmt.Printf("Import finished: %s, skipped %d\n", r.summary, skipped)
	return nil
}

// produceHands extracts hands from the given files and feeds them to the
// import queue. Unparseable and unsupported hands are skipped and counted,
// never fatal. Returns the skip count.
func produceHands(files []string, config util.ImportConfig, queue *importer.Queue) int {
	workers := config.ExtractionWorkers
	if workers <= 0 {
		workers = 1
	}
	fileCh := make(chan string)
	var skipped int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			extractor := parser.NewEverleaf(config.SiteID)
			for file := range fileCh {
				n := extractFile(extractor, file, queue)
				mu.Lock()
				skipped += int64(n)
				mu.Unlock()
			}
		}()
	}
	for _, file := range files {
		fileCh <- file
	}
	close(fileCh)
	wg.Wait()
	return int(skipped)
}

func extractFile(extractor parser.SiteExtractor, file string, queue *importer.Queue) int {
	data, err := ioutil.ReadFile(file)
	if err != nil {
		mainLogger.Error().Err(err).Msgf("Unable to read %s", file)
		return 0
	}
	skipped := 0
	for _, text := range parser.SplitHands(string(data)) {
		h, err := parser.ProcessHand(extractor, text)
		if err != nil {
			skipped++
			util.Metrics.HandSkipped()
			if errors.Cause(err) != parser.ErrUnsupportedGame {
				mainLogger.Warn().Err(err).Msgf("Skipping hand in %s", file)
			}
			continue
		}
		queue.Enqueue(h)
	}
	return skipped
}

func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to stat %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() && strings.HasSuffix(p, ".txt") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to walk %s", path)
	}
	return files, nil
}
