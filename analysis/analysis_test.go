package analysis

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"unusedjars/config"
	"unusedjars/jar"
	"unusedjars/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const depsTree = `com.example:service:jar:1.0
+- com.google.guava:guava:jar:28.1-jre:compile
|  \- com.google.guava:failureaccess:jar:1.0.1:compile
+- org.apache.logging.log4j:log4j-core:jar:2.12.1:compile
|  \- org.apache.logging.log4j:log4j-api:jar:2.12.1:compile
\- org.springframework:spring-context:jar:5.2.0:compile
   \- org.springframework:spring-aop:jar:5.2.0:compile
`

const jdepsOut = `guava-28.1-jre.jar -> libs/failureaccess-1.0.1.jar
guava-28.1-jre.jar -> java.base
log4j-core-2.12.1.jar -> libs/log4j-api-2.12.1.jar
log4j-core-2.12.1.jar -> not found
log4j-api-2.12.1.jar -> /usr/lib/jvm/java-8-openjdk/jre/lib/rt.jar
service-1.0.jar -> libs/guava-28.1-jre.jar
spring-context-5.2.0.jar -> /usr/lib/jvm/java-8-openjdk/jre/lib/ext/jfxrt.jar
`

func writeJar(t *testing.T, path, group, artifact string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	if group != "" {
		fw, err := w.Create(fmt.Sprintf("META-INF/maven/%s/%s/pom.properties", group, artifact))
		require.NoError(t, err)
		_, err = fmt.Fprintf(fw, "groupId=%s\nartifactId=%s\n", group, artifact)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	libs := filepath.Join(dir, "libs")
	require.NoError(t, os.Mkdir(libs, 0755))

	writeJar(t, filepath.Join(libs, "guava-28.1-jre.jar"), "com.google.guava", "guava")
	writeJar(t, filepath.Join(libs, "failureaccess-1.0.1.jar"), "", "")
	writeJar(t, filepath.Join(libs, "log4j-core-2.12.1.jar"), "org.apache.logging.log4j", "log4j-core")
	writeJar(t, filepath.Join(libs, "log4j-api-2.12.1.jar"), "org.apache.logging.log4j", "log4j-api")
	writeJar(t, filepath.Join(libs, "spring-context-5.2.0.jar"), "", "")
	writeJar(t, filepath.Join(libs, "spring-aop-5.2.0.jar"), "", "")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "deps_tree.txt"), []byte(depsTree), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jdeps.out"), []byte(jdepsOut), 0644))
	return dir
}

func cfg() *config.Config {
	c := config.Default()
	c.SelfJars = []string{"service-1.0.jar"}
	return c
}

func dep(coords string) models.Dep {
	d, err := models.ParseDep(coords)
	if err != nil {
		panic(err)
	}
	return d
}

func coords(deps []models.Dep) []string {
	var out []string
	for _, d := range deps {
		out = append(out, d.String())
	}
	return out
}

func TestRun(t *testing.T) {
	dir := fixture(t)
	result, err := Run(ResolveOptions(dir, Options{Config: cfg()}))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"com.google.guava:failureaccess",
		"com.google.guava:guava",
		"org.apache.logging.log4j:log4j-api",
		"org.apache.logging.log4j:log4j-core",
		"org.springframework:spring-aop",
		"org.springframework:spring-context",
	}, coords(result.All))
	assert.Equal(t, []string{
		"com.google.guava:guava",
		"org.apache.logging.log4j:log4j-core",
		"org.apache.logging.log4j:log4j-api",
	}, coords(result.Used))
	assert.Equal(t, []string{
		"com.google.guava:failureaccess",
		"org.springframework:spring-aop",
		"org.springframework:spring-context",
	}, coords(result.Unused))
	assert.Empty(t, result.Retained)

	for _, d := range result.Unused {
		assert.False(t, result.Usage.Contains(d), d.String())
		assert.Equal(t, filepath.Join(dir, "libs"), filepath.Dir(d.Path))
	}

	assert.Equal(t, []string{"com.google.guava:guava", "org.springframework:spring-context"}, coords(result.Exclusions.Roots()))
	assert.Equal(t, []string{"com.google.guava:failureaccess"}, coords(result.Exclusions.Get(dep("com.google.guava:guava"))))
	assert.Equal(t, []string{"org.springframework:spring-aop"}, coords(result.Exclusions.Get(dep("org.springframework:spring-context"))))
	for _, root := range result.Exclusions.Roots() {
		for _, excluded := range result.Exclusions.Get(root) {
			assert.True(t, models.ContainsDep(result.Unused, excluded))
		}
	}

	again, err := Run(ResolveOptions(dir, Options{Config: cfg()}))
	require.NoError(t, err)
	assert.Equal(t, coords(result.Used), coords(again.Used))
	assert.Equal(t, coords(result.Unused), coords(again.Unused))
}

func TestRunCountReferenced(t *testing.T) {
	c := cfg()
	c.CountReferenced = true
	result, err := Run(ResolveOptions(fixture(t), Options{Config: c}))
	require.NoError(t, err)

	assert.Contains(t, coords(result.Used), "com.google.guava:failureaccess")
	assert.Equal(t, []string{"org.springframework:spring-aop", "org.springframework:spring-context"}, coords(result.Unused))
	assert.Equal(t, []string{"org.springframework:spring-context"}, coords(result.Exclusions.Roots()))
}

func TestRunRetain(t *testing.T) {
	c := cfg()
	c.Retain = []string{"spring"}
	result, err := Run(ResolveOptions(fixture(t), Options{Config: c}))
	require.NoError(t, err)

	assert.Equal(t, []string{"com.google.guava:failureaccess"}, coords(result.Unused))
	assert.Equal(t, []string{"org.springframework:spring-aop", "org.springframework:spring-context"}, coords(result.Retained))
	assert.Equal(t, []string{"com.google.guava:guava"}, coords(result.Exclusions.Roots()))
}

func TestRunInvariants(t *testing.T) {
	c := cfg()
	c.Required = []string{"com.google.guava:guava", "org.springframework:spring-aop"}
	_, err := Run(ResolveOptions(fixture(t), Options{Config: c}))
	assert.ErrorIs(t, err, ErrInvariant)

	c = cfg()
	c.Whitelist = []string{"com.google.guava:failureaccess"}
	_, err = Run(ResolveOptions(fixture(t), Options{Config: c}))
	assert.ErrorIs(t, err, ErrInvariant)

	c = cfg()
	c.Required = []string{"org.apache.logging.log4j:log4j-api", "com.google.guava:guava"}
	c.Whitelist = []string{"org.apache.logging.log4j:log4j-api"}
	_, err = Run(ResolveOptions(fixture(t), Options{Config: c}))
	assert.NoError(t, err)
}

func TestRunFailures(t *testing.T) {
	dir := fixture(t)
	_, err := Run(ResolveOptions(dir, Options{Config: cfg(), JdepsFile: "absent.out"}))
	assert.Error(t, err)

	_, err = Run(ResolveOptions(dir, Options{Config: cfg(), TreeFile: "absent.txt"}))
	assert.Error(t, err)

	writeJar(t, filepath.Join(dir, "libs", "mystery-1.0.jar"), "", "")
	_, err = Run(ResolveOptions(dir, Options{Config: cfg()}))
	assert.ErrorIs(t, err, jar.ErrGroupNotFound)
}

func TestCheck(t *testing.T) {
	a := dep("g:a")
	b := dep("g:b")
	assert.NoError(t, Check([]models.Dep{a}, []models.Dep{b}, config.Default()))
	assert.ErrorIs(t, Check([]models.Dep{a}, []models.Dep{a, b}, config.Default()), ErrInvariant)
}

func TestLoadTreeFormats(t *testing.T) {
	dir := t.TempDir()

	gradlePath := filepath.Join(dir, "gradle.txt")
	require.NoError(t, os.WriteFile(gradlePath, []byte("runtimeClasspath - Runtime classpath of source set 'main'.\n\\--- com.a:one:1.0\n     \\--- com.b:two:2.0\n"), 0644))
	tree, err := LoadTree(gradlePath, FormatAuto, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.b"}, tree.FindGroups("two"))

	propsPath := filepath.Join(dir, "service-1.0-dependencies.xml")
	require.NoError(t, os.WriteFile(propsPath, []byte("com.google.guava=guava\norg.slf4j=slf4j-api\n"), 0644))
	tree, err = LoadTree(propsPath, "", "")
	require.NoError(t, err)
	assert.Len(t, tree.Children, 2)
	assert.Equal(t, []string{"org.slf4j"}, tree.FindGroups("slf4j-api"))

	mavenPath := filepath.Join(dir, "deps_tree.txt")
	require.NoError(t, os.WriteFile(mavenPath, []byte(depsTree), 0644))
	tree, err = LoadTree(mavenPath, FormatMaven, "")
	require.NoError(t, err)
	assert.Equal(t, "service", tree.ArtifactId)

	_, err = LoadTree(mavenPath, "ivy", "")
	assert.Error(t, err)
}

func TestResolveOptions(t *testing.T) {
	opts := ResolveOptions("/work", Options{TreeFile: "/abs/tree.txt", JdepsFile: "out/jdeps.txt"})
	assert.Equal(t, filepath.Join("/work", "libs"), opts.LibsDir)
	assert.Equal(t, "/abs/tree.txt", opts.TreeFile)
	assert.Equal(t, filepath.Join("/work", "out", "jdeps.txt"), opts.JdepsFile)
}
