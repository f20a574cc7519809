package maven

import (
	"strings"
	"testing"

	"unusedjars/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const outputFileTree = `com.example:service:jar:1.4.0-SNAPSHOT
+- com.google.guava:guava:jar:28.1-jre:compile
|  +- com.google.guava:failureaccess:jar:1.0.1:compile
|  \- org.checkerframework:checker-qual:jar:2.8.1:compile
+- org.apache.logging.log4j:log4j-core:jar:2.12.1:compile
|  \- org.apache.logging.log4j:log4j-api:jar:2.12.1:compile
\- io.netty:netty-transport-native-epoll:jar:linux-x86_64:4.1.42.Final:runtime
   \- io.netty:netty-common:jar:4.1.42.Final:runtime (optional)
`

func artifacts(nodes []*models.Dependency) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.ArtifactId)
	}
	return out
}

func TestParseTree(t *testing.T) {
	root, err := ParseTree(strings.NewReader(outputFileTree))
	require.NoError(t, err)

	assert.Equal(t, "com.example", root.GroupId)
	assert.Equal(t, "service", root.ArtifactId)
	assert.Equal(t, "1.4.0-SNAPSHOT", root.Version)
	require.Equal(t, []string{"guava", "log4j-core", "netty-transport-native-epoll"}, artifacts(root.Children))

	guava := root.Children[0]
	assert.Equal(t, []string{"failureaccess", "checker-qual"}, artifacts(guava.Children))
	assert.Equal(t, "compile", guava.Scope)

	netty := root.Children[2]
	assert.Equal(t, "linux-x86_64", netty.Classifier)
	assert.Equal(t, "4.1.42.Final", netty.Version)
	assert.Equal(t, "runtime", netty.Scope)
	require.Len(t, netty.Children, 1)
	assert.True(t, netty.Children[0].Optional)
	assert.Equal(t, "io.netty", netty.Children[0].GroupId)
}

func TestParseTreeFromMavenOutput(t *testing.T) {
	output := `[INFO] Scanning for projects...
[INFO]
[INFO] --- maven-dependency-plugin:3.1.1:tree (default-cli) @ service ---
[INFO] com.example:service:jar:1.0
[INFO] +- org.slf4j:slf4j-api:jar:1.7.28:compile
[INFO] \- com.fasterxml.jackson.core:jackson-databind:jar:2.10.0:compile
[INFO]    +- com.fasterxml.jackson.core:jackson-annotations:jar:2.10.0:compile
[INFO]    \- (org.slf4j:slf4j-api:jar:1.7.28:compile - omitted for duplicate)
[INFO] ------------------------------------------------------------------------
[INFO] BUILD SUCCESS
[INFO] ------------------------------------------------------------------------
`
	root, err := ParseTree(strings.NewReader(output))
	require.NoError(t, err)

	assert.Equal(t, "service", root.ArtifactId)
	require.Equal(t, []string{"slf4j-api", "jackson-databind"}, artifacts(root.Children))
	databind := root.Children[1]
	assert.Equal(t, []string{"jackson-annotations", "slf4j-api"}, artifacts(databind.Children))
	assert.Equal(t, "org.slf4j", databind.Children[1].GroupId)
}

func TestParseTreeErrors(t *testing.T) {
	_, err := ParseTree(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ParseTree(strings.NewReader("+- g:a:jar:1.0:compile\n"))
	assert.Error(t, err)

	_, err = ParseTree(strings.NewReader("g:root:jar:1.0\n|  +- g:a:jar:1.0:compile\n"))
	assert.Error(t, err)

	_, err = ParseTree(strings.NewReader("g:root:jar:1.0\n+- not-coordinates\n"))
	assert.Error(t, err)
}

func TestParseProperties(t *testing.T) {
	listing := `# generated
com.google.guava=guava
org.apache.logging.log4j:log4j-api
io.netty=netty-common:4.1.42.Final
com.foo:bar=1.0
x=com.baz:qux
org.ow2.asm=asm:jar:7.1
empty.group=
`
	deps, err := ParseProperties(strings.NewReader(listing))
	require.NoError(t, err)
	assert.Equal(t, []models.Dep{
		{GroupId: "com.google.guava", ArtifactId: "guava"},
		{GroupId: "org.apache.logging.log4j", ArtifactId: "log4j-api"},
		{GroupId: "io.netty", ArtifactId: "netty-common"},
		{GroupId: "com.foo", ArtifactId: "bar"},
		{GroupId: "com.baz", ArtifactId: "qux"},
		{GroupId: "org.ow2.asm", ArtifactId: "asm"},
	}, deps)
}
