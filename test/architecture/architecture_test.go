package architecture_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// allowedDomainImports pins the domain hierarchy: base types at the bottom,
// composed aggregates above. The evidence card sits on top because it
// snapshots everything; nothing may import back down into it.
var allowedDomainImports = map[string][]string{
	"errors":    {},
	"values":    {"errors"},
	"vessel":    {"errors"},
	"identity":  {"errors", "values", "vessel"},
	"ownership": {"errors", "vessel"},
	"risk":      {"errors", "values", "vessel"},
	"evidence":  {"errors", "identity", "ownership", "risk", "values", "vessel"},
}

const domainPrefix = "github.com/blueharbor/maritime-risk-engine/internal/domain/"

// TestDomainLayering ensures domain packages only import downward in the
// hierarchy.
func TestDomainLayering(t *testing.T) {
	for domain, allowed := range allowedDomainImports {
		t.Run(domain, func(t *testing.T) {
			files, err := filepath.Glob(filepath.Join("../../internal/domain", domain, "*.go"))
			if err != nil || len(files) == 0 {
				t.Fatalf("domain %s not found", domain)
			}

			allowedSet := make(map[string]bool, len(allowed))
			for _, a := range allowed {
				allowedSet[a] = true
			}

			for _, file := range files {
				for _, imp := range getFileImports(t, file) {
					if !strings.HasPrefix(imp, domainPrefix) {
						continue
					}
					target := strings.TrimPrefix(imp, domainPrefix)
					if target != domain && !allowedSet[target] {
						t.Errorf("domain %s imports %s (violation in %s)", domain, target, file)
					}
				}
			}
		})
	}
}

// TestDomainNotDependOnInfrastructure ensures the domain layer stays free of
// storage, transport, and logging concerns. database/sql/driver is allowed:
// value objects implement driver.Valuer without touching a database.
func TestDomainNotDependOnInfrastructure(t *testing.T) {
	forbiddenPrefixes := []string{
		"github.com/jackc/pgx",
		"github.com/lib/pq",
		"github.com/redis/go-redis",
		"github.com/prometheus",
		"go.opentelemetry.io",
		"go.uber.org/zap",
		"net/http",
		"google.golang.org/grpc",
	}

	err := filepath.WalkDir("../../internal/domain", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		for _, imp := range getFileImports(t, path) {
			if imp == "database/sql" || imp == "log/slog" {
				t.Errorf("domain file %s imports infrastructure: %s", path, imp)
			}
			for _, forbidden := range forbiddenPrefixes {
				if strings.HasPrefix(imp, forbidden) {
					t.Errorf("domain file %s imports infrastructure: %s", path, imp)
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

// TestServicesComposeAtTheEdge ensures service packages never import each
// other. Cross-service needs are expressed as locally declared interfaces and
// wired together in the entrypoints.
func TestServicesComposeAtTheEdge(t *testing.T) {
	const servicePrefix = "github.com/blueharbor/maritime-risk-engine/internal/service/"

	services := []string{"evidence", "identitygraph", "ownercluster", "riskscoring"}
	for _, service := range services {
		t.Run(service, func(t *testing.T) {
			files, err := filepath.Glob(filepath.Join("../../internal/service", service, "*.go"))
			if err != nil || len(files) == 0 {
				t.Fatalf("service %s not found", service)
			}

			for _, file := range files {
				if strings.HasSuffix(file, "_test.go") {
					continue
				}
				for _, imp := range getFileImports(t, file) {
					if strings.HasPrefix(imp, servicePrefix) && !strings.HasSuffix(imp, "/"+service) {
						t.Errorf("service %s imports sibling service %s (violation in %s)",
							service, imp, file)
					}
				}
			}
		})
	}
}

// TestServiceMaxDependencies ensures service structs stay thin. The exporter
// carries the most seams (four read models plus blob and card storage); a
// service needing more than that wants splitting.
func TestServiceMaxDependencies(t *testing.T) {
	const maxDeps = 6

	seamSuffixes := []string{"Repository", "Resolver", "Source", "Store", "Cache", "Aggregator"}

	files, err := filepath.Glob("../../internal/service/*/service.go")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no service files found")
	}

	for _, file := range files {
		fset := token.NewFileSet()
		node, err := parser.ParseFile(fset, file, nil, parser.ParseComments)
		if err != nil {
			t.Errorf("failed to parse %s: %v", file, err)
			continue
		}

		ast.Inspect(node, func(n ast.Node) bool {
			typeSpec, ok := n.(*ast.TypeSpec)
			if !ok || !strings.EqualFold(typeSpec.Name.Name, "service") {
				return true
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				return true
			}

			deps := 0
			for _, field := range structType.Fields.List {
				typeStr := getTypeString(field.Type)
				for _, suffix := range seamSuffixes {
					if strings.HasSuffix(typeStr, suffix) {
						deps++
						break
					}
				}
			}
			if deps > maxDeps {
				t.Errorf("service struct in %s has %d dependencies (max %d)", file, deps, maxDeps)
			}
			return true
		})
	}
}

// TestValueObjectsAreImmutable ensures value objects don't have setters.
func TestValueObjectsAreImmutable(t *testing.T) {
	valueFiles, err := filepath.Glob("../../internal/domain/values/*.go")
	if err != nil {
		t.Fatal(err)
	}

	for _, file := range valueFiles {
		if strings.HasSuffix(file, "_test.go") {
			continue
		}

		fset := token.NewFileSet()
		node, err := parser.ParseFile(fset, file, nil, parser.ParseComments)
		if err != nil {
			t.Errorf("failed to parse %s: %v", file, err)
			continue
		}

		ast.Inspect(node, func(n ast.Node) bool {
			if fn, ok := n.(*ast.FuncDecl); ok {
				if fn.Recv != nil && strings.HasPrefix(fn.Name.Name, "Set") {
					t.Errorf("value object in %s has setter method: %s", file, fn.Name.Name)
				}
			}
			return true
		})
	}
}

func getFileImports(t *testing.T, filename string) []string {
	t.Helper()

	content, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("failed to read %s: %v", filename, err)
	}

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, content, parser.ImportsOnly)
	if err != nil {
		t.Fatalf("failed to parse %s: %v", filename, err)
	}

	imports := make([]string, 0, len(node.Imports))
	for _, imp := range node.Imports {
		imports = append(imports, strings.Trim(imp.Path.Value, `"`))
	}
	return imports
}

func getTypeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return getTypeString(t.X)
	case *ast.SelectorExpr:
		return getTypeString(t.X) + "." + t.Sel.Name
	default:
		return ""
	}
}
