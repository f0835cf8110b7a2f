// Copyright 2024 THEMA Consulting Group

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/THEMA-CG/thema-market-outlook-api/outlook"
	"github.com/THEMA-CG/thema-market-outlook-api/outlook/hydrogen"
	"github.com/THEMA-CG/thema-market-outlook-api/outlook/market"
	"github.com/THEMA-CG/thema-market-outlook-api/outlook/technology"
	"github.com/THEMA-CG/thema-market-outlook-api/table"
	"github.com/joho/godotenv"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"

	toml "github.com/pelletier/go-toml/v2"
)

// paramsFlag collects repeated -p field=value arguments in order. A value may
// list several comma-separated alternatives, which fan out to all their
// combinations.
type paramsFlag []outlook.Param

var _ flag.Value = &paramsFlag{}

func (p *paramsFlag) String() string {
	parts := make([]string, len(*p))
	for i, param := range *p {
		parts[i] = param.Field + "=" + param.Value
	}
	return strings.Join(parts, " ")
}

func (p *paramsFlag) Set(s string) error {
	field, value, found := strings.Cut(s, "=")
	if !found || field == "" {
		return errors.Reason("expected field=value, got %q", s)
	}
	*p = append(*p, outlook.Param{Field: field, Value: value})
	return nil
}

type Flags struct {
	Config   string // TOML config file with the credentials
	Dataset  string // market, technology or hydrogen
	Data     string // master, hourly, annual, monthly, go or ppa
	Params   paramsFlag
	CSV      bool   // print tables in CSV format; default: text
	XLSX     string // write an XLSX workbook to this path instead of printing
	LogLevel logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("outlook-fetch", flag.ExitOnError)
	fs.StringVar(&flags.Config, "conf", "", "TOML config file with url and credentials")
	fs.StringVar(&flags.Dataset, "dataset", "market",
		"dataset family: market, technology or hydrogen")
	fs.StringVar(&flags.Data, "data", "master",
		"which data to fetch: master, hourly, annual, monthly, go or ppa")
	fs.Var(&flags.Params, "p",
		"query parameter as field=value; repeatable; comma-separated values fan out")
	fs.BoolVar(&flags.CSV, "csv", false, "print tables in CSV format; default: text")
	fs.StringVar(&flags.XLSX, "xlsx", "", "write an XLSX workbook to this path")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return &flags, nil
}

// Config is the TOML file format. Credentials may instead come from the
// THEMA_USERNAME and THEMA_PASSWORD environment variables (or a .env file),
// which take precedence so passwords can stay out of config files.
type Config struct {
	URL        string `toml:"url"`         // default: the production API
	Username   string `toml:"username"`    // web portal username
	Password   string `toml:"password"`    // prefer THEMA_PASSWORD instead
	TimeoutSec int    `toml:"timeout_sec"` // HTTP timeout; default: 60
}

func parseConfig(path string) (*Config, error) {
	var c Config
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Annotate(err, "failed to open config file %q", path)
		}
		defer f.Close()
		if err := toml.NewDecoder(f).Decode(&c); err != nil {
			return nil, errors.Annotate(err, "failed to read config file %q", path)
		}
	}
	_ = godotenv.Load() // a .env file is optional
	if v := os.Getenv("THEMA_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("THEMA_PASSWORD"); v != "" {
		c.Password = v
	}
	if c.Username == "" || c.Password == "" {
		return nil, errors.Reason(
			"missing credentials: set username/password in the config file " +
				"or THEMA_USERNAME/THEMA_PASSWORD in the environment")
	}
	return &c, nil
}

func (c *Config) clientConfig() outlook.Config {
	return outlook.Config{
		URL:      c.URL,
		Username: c.Username,
		Password: c.Password,
		Timeout:  time.Duration(c.TimeoutSec) * time.Second,
	}
}

func datasetConfig(name string) (outlook.DatasetConfig, error) {
	switch name {
	case "market":
		return market.Config(), nil
	case "technology":
		return technology.Config(), nil
	case "hydrogen":
		return hydrogen.Config(), nil
	}
	return outlook.DatasetConfig{}, errors.Reason(
		"unknown dataset %q; expected market, technology or hydrogen", name)
}

// expandCombos splits comma-separated parameter values and expands them into
// the cross product of all combinations, in declaration order.
func expandCombos(params []outlook.Param) []outlook.Params {
	combos := []outlook.Params{{}}
	for _, p := range params {
		values := strings.Split(p.Value, ",")
		var next []outlook.Params
		for _, c := range combos {
			for _, v := range values {
				next = append(next, c.With(p.Field, v))
			}
		}
		combos = next
	}
	return combos
}

type comboResult struct {
	index   int
	params  outlook.Params
	records []outlook.Record
	err     error
}

// fetchCombos fetches every parameter combination and returns the results in
// combination order. The master data is loaded up front, so the combination
// fetches only read shared state; token refresh serializes in the client.
func fetchCombos(ctx context.Context, ds *outlook.Dataset, op string, combos []outlook.Params) ([]comboResult, error) {
	if _, err := ds.MasterData(ctx); err != nil {
		return nil, err
	}
	indexed := make([]comboResult, len(combos))
	for i, c := range combos {
		indexed[i] = comboResult{index: i, params: c}
	}
	f := func(r comboResult) comboResult {
		r.records, r.err = ds.GetData(ctx, op, r.params)
		return r
	}
	pm := iterator.ParallelMap(ctx, 2*runtime.NumCPU(), iterator.FromSlice(indexed), f)
	defer pm.Close()

	results := iterator.Reduce[comboResult, []comboResult](pm, []comboResult{},
		func(r comboResult, acc []comboResult) []comboResult {
			return append(acc, r)
		})
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })
	return results, nil
}

type rejectedRow struct {
	fields []string
	params outlook.Params
	reason string
}

func (r rejectedRow) CSV() []string {
	row := make([]string, 0, len(r.fields)+1)
	for _, f := range r.fields {
		v, _ := r.params.Get(f)
		row = append(row, v)
	}
	return append(row, r.reason)
}

// rejectedTable lists the parameter combinations the master data rejected.
func rejectedTable(fields []string, rejected []rejectedRow) *table.Table {
	t := table.NewTable(append(append([]string{}, fields...), "reason")...)
	for _, r := range rejected {
		t.AddRow(r)
	}
	return t
}

// writeTables renders the named tables to w in text or CSV form, or to an
// XLSX workbook with one sheet per table.
func writeTables(flags *Flags, w io.Writer, sheets []table.Sheet) error {
	if flags.XLSX != "" {
		return table.WriteXLSX(flags.XLSX, sheets, table.Params{})
	}
	for _, s := range sheets {
		if _, err := fmt.Fprintf(w, "%s\n", s.Name); err != nil {
			return err
		}
		var err error
		if flags.CSV {
			err = s.Table.WriteCSV(w, table.Params{})
		} else {
			err = s.Table.WriteText(w, table.Params{})
		}
		if err != nil {
			return errors.Annotate(err, "failed to write table %q", s.Name)
		}
	}
	return nil
}

func fetchData(ctx context.Context, flags *Flags, w io.Writer, ds *outlook.Dataset) error {
	e, ok := ds.Endpoint(flags.Data)
	if !ok {
		return errors.Reason("%s dataset has no %q data; available: master, %s",
			flags.Dataset, flags.Data, strings.Join(ds.Operations(), ", "))
	}
	combos := expandCombos(flags.Params)
	results, err := fetchCombos(ctx, ds, flags.Data, combos)
	if err != nil {
		return err
	}
	var records []outlook.Record
	var rejected []rejectedRow
	for _, r := range results {
		switch {
		case r.err == nil:
			records = append(records, r.records...)
		case errors.Is(r.err, outlook.ErrNoData):
			logging.Warningf(ctx, "no data for %s", r.params)
		default:
			verr, ok := r.err.(*outlook.ValidationError)
			if !ok {
				return r.err
			}
			rejected = append(rejected, rejectedRow{
				fields: e.Fields(), params: r.params, reason: verr.Error()})
		}
	}
	if len(records) == 0 {
		return outlook.ErrNoData
	}
	sheets := []table.Sheet{
		{Name: flags.Data, Table: outlook.RecordTable(e.Shape, e.Fields(), records)},
	}
	if len(rejected) > 0 {
		logging.Warningf(ctx, "%d parameter combinations were rejected", len(rejected))
		sheets = append(sheets, table.Sheet{
			Name: "rejected", Table: rejectedTable(e.Fields(), rejected)})
	}
	return writeTables(flags, w, sheets)
}

func fetchMaster(ctx context.Context, flags *Flags, w io.Writer, ds *outlook.Dataset) error {
	t, err := ds.MasterData(ctx)
	if err != nil {
		return err
	}
	sheets := make([]table.Sheet, len(t.Frames))
	for i := range t.Frames {
		f := &t.Frames[i]
		sheets[i] = table.Sheet{Name: f.Name, Table: f.Table()}
	}
	return writeTables(flags, w, sheets)
}

func run(ctx context.Context, flags *Flags, w io.Writer) error {
	config, err := parseConfig(flags.Config)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	dsConfig, err := datasetConfig(flags.Dataset)
	if err != nil {
		return err
	}
	ctx = outlook.UseClient(ctx, config.clientConfig())
	ds := outlook.NewDataset(dsConfig)

	if flags.Data == "master" {
		return fetchMaster(ctx, flags, w, ds)
	}
	return fetchData(ctx, flags, w, ds)
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := run(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
