// seed carga los datos iniciales en PostgreSQL: usuarios de la consola,
// catálogo y clientes de ejemplo. Opcionalmente importa un catálogo CSV
// exportado del POS anterior (separado por ';').
//
// Uso: go run ./cmd/seed [-catalog productos.csv] [-charset ISO-8859-1]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/billy-api/internal/infrastructure/postgres"
	"github.com/jhoicas/billy-api/internal/seed"
	"github.com/jhoicas/billy-api/pkg/config"
)

func main() {
	catalogPath := flag.String("catalog", "", "CSV de productos a importar")
	charset := flag.String("charset", "ISO-8859-1", "codificación del CSV")
	flag.Parse()

	if err := run(*catalogPath, *charset); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(catalogPath, charset string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB, postgres.DefaultPoolOptions)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	products := postgres.NewProductRepository(pool)
	now := time.Now().UTC()
	sum, err := seed.Load(ctx, seed.Repos{
		Users:    postgres.NewUserRepository(pool),
		Products: products,
		Clients:  postgres.NewClientRepository(pool),
	}, now)
	if err != nil {
		return err
	}
	fmt.Printf("Datos iniciales: %d creados, %d existentes\n", sum.Created, sum.Skipped)

	if catalogPath == "" {
		return nil
	}
	f, err := os.Open(catalogPath)
	if err != nil {
		return fmt.Errorf("abrir catálogo: %w", err)
	}
	defer f.Close()

	r, err := seed.DecodeReader(f, charset)
	if err != nil {
		return err
	}
	list, err := seed.ReadCatalog(r)
	if err != nil {
		return err
	}
	sum, err = seed.ImportProducts(ctx, products, list, now)
	if err != nil {
		return err
	}
	fmt.Printf("Catálogo %s: %d productos importados, %d ya registrados\n", catalogPath, sum.Created, sum.Skipped)
	return nil
}
