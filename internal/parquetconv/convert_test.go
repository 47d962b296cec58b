package parquetconv_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/synthsales/internal/dataset"
	"github.com/rshade/synthsales/internal/parquetconv"
)

const sampleCSV = `id_cliente,fecha_de_transaccion,cantidad_de_venta,categoria_de_producto,region_de_venta
1,2023-01-01,100,Moda,Caribe
2,2023-01-02,200,Moda,Andina
3,2023-01-02,300,Salud,Caribe
4,2023-01-03,400,Tecnología,Insular
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConvert_SingleFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "parquet")

	res, err := parquetconv.Convert(context.Background(), parquetconv.Options{
		Input:  writeCSV(t, sampleCSV),
		Output: out,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), res.RowsWritten)
	require.Equal(t, []string{filepath.Join(out, parquetconv.PartFileName)}, res.Files)

	rows, err := parquet.ReadFile[dataset.Record](res.Files[0])
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, int64(3), rows[2].CustomerID)
	assert.Equal(t, "2023-01-02", rows[2].Date.UTC().Format("2006-01-02"))
	assert.Equal(t, int64(300), rows[2].Quantity)
	assert.Equal(t, "Salud", rows[2].Category)
	assert.Equal(t, "Caribe", rows[2].Region)
}

func TestConvert_Partitioned(t *testing.T) {
	out := filepath.Join(t.TempDir(), "parquet")

	res, err := parquetconv.Convert(context.Background(), parquetconv.Options{
		Input:         writeCSV(t, sampleCSV),
		Output:        out,
		PartitionCols: []string{dataset.ColumnCategory, dataset.ColumnRegion},
		Compression:   parquetconv.CompressionSnappy,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), res.RowsWritten)
	assert.Equal(t, []string{
		filepath.Join(out, "categoria_de_producto=Moda", "region_de_venta=Andina", parquetconv.PartFileName),
		filepath.Join(out, "categoria_de_producto=Moda", "region_de_venta=Caribe", parquetconv.PartFileName),
		filepath.Join(out, "categoria_de_producto=Salud", "region_de_venta=Caribe", parquetconv.PartFileName),
		filepath.Join(out, "categoria_de_producto=Tecnología", "region_de_venta=Insular", parquetconv.PartFileName),
	}, res.Files)

	var total int
	for _, f := range res.Files {
		rows, readErr := parquet.ReadFile[dataset.Record](f)
		require.NoError(t, readErr)
		total += len(rows)
	}
	assert.Equal(t, 4, total)
}

func TestConvert_PartitionByDate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "parquet")

	res, err := parquetconv.Convert(context.Background(), parquetconv.Options{
		Input:         writeCSV(t, sampleCSV),
		Output:        out,
		PartitionCols: []string{dataset.ColumnDate},
	})
	require.NoError(t, err)
	require.Len(t, res.Files, 3)
	assert.FileExists(t, filepath.Join(out, "fecha_de_transaccion=2023-01-02", parquetconv.PartFileName))
}

func TestConvert_HeaderOnlyWritesEmptyFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "parquet")
	header := "id_cliente,fecha_de_transaccion,cantidad_de_venta,categoria_de_producto,region_de_venta\n"

	res, err := parquetconv.Convert(context.Background(), parquetconv.Options{
		Input:  writeCSV(t, header),
		Output: out,
	})
	require.NoError(t, err)
	assert.Zero(t, res.RowsWritten)
	require.Len(t, res.Files, 1)
	assert.FileExists(t, res.Files[0])
}

func TestConvert_Errors(t *testing.T) {
	existing := t.TempDir()

	tests := []struct {
		name    string
		opts    func(t *testing.T) parquetconv.Options
		wantErr error
	}{
		{
			name: "missing input",
			opts: func(t *testing.T) parquetconv.Options {
				return parquetconv.Options{Input: filepath.Join(t.TempDir(), "nope.csv"), Output: filepath.Join(t.TempDir(), "o")}
			},
			wantErr: parquetconv.ErrInputNotFound,
		},
		{
			name: "output exists",
			opts: func(t *testing.T) parquetconv.Options {
				return parquetconv.Options{Input: writeCSV(t, sampleCSV), Output: existing}
			},
			wantErr: parquetconv.ErrOutputExists,
		},
		{
			name: "unknown partition column",
			opts: func(t *testing.T) parquetconv.Options {
				return parquetconv.Options{
					Input:         writeCSV(t, sampleCSV),
					Output:        filepath.Join(t.TempDir(), "o"),
					PartitionCols: []string{dataset.ColumnQuantity},
				}
			},
			wantErr: parquetconv.ErrUnknownColumn,
		},
		{
			name: "unknown compression",
			opts: func(t *testing.T) parquetconv.Options {
				return parquetconv.Options{
					Input:       writeCSV(t, sampleCSV),
					Output:      filepath.Join(t.TempDir(), "o"),
					Compression: "brotli9000",
				}
			},
			wantErr: parquetconv.ErrUnknownCompression,
		},
		{
			name: "negative open file limit",
			opts: func(t *testing.T) parquetconv.Options {
				return parquetconv.Options{
					Input:        writeCSV(t, sampleCSV),
					Output:       filepath.Join(t.TempDir(), "o"),
					MaxOpenFiles: -1,
				}
			},
			wantErr: parquetconv.ErrInvalidMaxOpenFiles,
		},
		{
			name: "wrong header",
			opts: func(t *testing.T) parquetconv.Options {
				return parquetconv.Options{Input: writeCSV(t, "a,b,c,d,e\n1,2,3,4,5\n"), Output: filepath.Join(t.TempDir(), "o")}
			},
			wantErr: dataset.ErrInvalidHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parquetconv.Convert(context.Background(), tt.opts(t))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConvert_MorePartitionsThanOpenFileLimit(t *testing.T) {
	regions := []string{"Andina", "Caribe", "Insular", "Pacífica", "Orinoquía"}
	var b strings.Builder
	b.WriteString(strings.Join(dataset.Header(), ",") + "\n")
	for i := range 20 {
		fmt.Fprintf(&b, "%d,2023-01-%02d,%d,Moda,%s\n", i+1, i%5+1, i+1, regions[i%len(regions)])
	}
	out := filepath.Join(t.TempDir(), "parquet")

	res, err := parquetconv.Convert(context.Background(), parquetconv.Options{
		Input:         writeCSV(t, b.String()),
		Output:        out,
		PartitionCols: []string{dataset.ColumnRegion},
		MaxOpenFiles:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.RowsWritten)
	assert.Greater(t, len(res.Files), len(regions), "cycling partitions rotate part files")
	assert.Contains(t, res.Files, filepath.Join(out, dataset.ColumnRegion+"=Caribe", "part-00001.parquet"))

	perRegion := make(map[string]int)
	var ids []int64
	for _, f := range res.Files {
		rows, readErr := parquet.ReadFile[dataset.Record](f)
		require.NoError(t, readErr)
		for _, r := range rows {
			assert.Equal(t, dataset.ColumnRegion+"="+r.Region, filepath.Base(filepath.Dir(f)))
			perRegion[r.Region]++
			ids = append(ids, r.CustomerID)
		}
	}
	assert.Len(t, ids, 20)
	for _, region := range regions {
		assert.Equal(t, 4, perRegion[region], region)
	}
	slices.Sort(ids)
	assert.Equal(t, int64(1), ids[0])
	assert.Equal(t, int64(20), ids[19])
}

func TestConvert_ForceOverwrites(t *testing.T) {
	out := t.TempDir()

	res, err := parquetconv.Convert(context.Background(), parquetconv.Options{
		Input:        writeCSV(t, sampleCSV),
		Output:       out,
		Force:        true,
		Compression:  parquetconv.CompressionNone,
		RowGroupSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.RowsWritten)
}

func TestConvert_BadRow(t *testing.T) {
	content := sampleCSV + "5,yesterday,1,Moda,Caribe\n"

	_, err := parquetconv.Convert(context.Background(), parquetconv.Options{
		Input:  writeCSV(t, content),
		Output: filepath.Join(t.TempDir(), "o"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fecha_de_transaccion")
}

func TestConvert_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := parquetconv.Convert(ctx, parquetconv.Options{
		Input:  writeCSV(t, sampleCSV),
		Output: filepath.Join(t.TempDir(), "o"),
	})
	require.ErrorIs(t, err, context.Canceled)
}
