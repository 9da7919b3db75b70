package soundpack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfsoundsense/soundsense-go/internal/soundmodel"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesBasicSoundEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bark.wav", "fake audio")
	writeFile(t, dir, "pack.xml", `<soundpack>
		<sound logPattern="A dog barks" channel="animals">
			<soundFile fileName="bark.wav" weight="50" volumeAdjustment="0"/>
		</sound>
	</soundpack>`)

	result, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 1, len(result.Table.Entries))

	entry := result.Table.Entries[0]
	assert.Equal(t, "animals", entry.Channel)
	assert.Equal(t, "A dog barks", entry.Pattern)
	require.Len(t, entry.Files, 1)
	assert.Equal(t, filepath.Join(dir, "bark.wav"), entry.Files[0].Source.Single())
	assert.Equal(t, 50.0, entry.Files[0].Weight)
}

func TestLoadDropsSoundWithoutLogPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pack.xml", `<soundpack>
		<sound channel="animals">
			<soundFile fileName="bark.wav"/>
		</sound>
	</soundpack>`)

	result, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, len(result.Table.Entries))
}

func TestLoadDropsSoundWithUncompilableRegex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pack.xml", `<soundpack>
		<sound logPattern="a(b">
			<soundFile fileName="x.wav"/>
		</sound>
	</soundpack>`)

	result, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, len(result.Table.Entries))
}

func TestLoadAppliesChannelSettings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pack.xml", `<soundpack>
		<channelSettings>
			<channelSetting name="combat" playType="singleEager"/>
		</channelSettings>
		<sound logPattern="a hit lands" channel="combat">
			<soundFile fileName="hit.wav"/>
		</sound>
	</soundpack>`)

	result, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, soundmodel.PlaySingleEager, result.Channels["combat"])
}

func TestLoadUnknownPlayTypeDefaultsToAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pack.xml", `<soundpack>
		<channelSettings>
			<channelSetting name="combat" playType="bogus"/>
		</channelSettings>
		<sound logPattern="a hit lands" channel="combat">
			<soundFile fileName="hit.wav"/>
		</sound>
	</soundpack>`)

	result, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, soundmodel.PlayAll, result.Channels["combat"])
}

func TestLoadLeavesChannelsWithoutExplicitSettingUnpopulated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pack.xml", `<soundpack>
		<sound logPattern="rain begins" channel="weather">
			<soundFile fileName="rain.wav"/>
		</sound>
		<sound logPattern="a hit lands" channel="combat">
			<soundFile fileName="hit.wav"/>
		</sound>
	</soundpack>`)

	result, err := Load(dir)
	require.NoError(t, err)

	_, hasWeather := result.Channels["weather"]
	assert.False(t, hasWeather, "weather has no <channelSetting>, so the manager must apply its own default")
	_, hasCombat := result.Channels["combat"]
	assert.False(t, hasCombat, "combat has no <channelSetting> either")
}

func TestLoadChannelOrderIsTotalMusicDiscoveryThenMisc(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pack.xml", `<soundpack>
		<sound logPattern="first rule" channel="combat">
			<soundFile fileName="a.wav"/>
		</sound>
		<sound logPattern="second rule" channel="ambience">
			<soundFile fileName="b.wav"/>
		</sound>
		<sound logPattern="third rule">
			<soundFile fileName="c.wav"/>
		</sound>
	</soundpack>`)

	result, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"total", "music", "combat", "ambience", "misc"}, result.ChannelOrder)
}

func TestLoadRuleWithoutChannelRoutesThroughMisc(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pack.xml", `<soundpack>
		<sound logPattern="ambient noise">
			<soundFile fileName="x.wav"/>
		</sound>
	</soundpack>`)

	result, err := Load(dir)
	require.NoError(t, err)
	entry := result.Table.Entries[0]
	assert.Equal(t, "", entry.Channel)
}

func TestLoadExpandsM3UPlaylist(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.wav", "x")
	writeFile(t, dir, "b.wav", "x")
	writeFile(t, dir, "tracks.m3u", "#EXTM3U\na.wav\nb.wav\n")
	writeFile(t, dir, "pack.xml", `<soundpack>
		<sound logPattern="music starts" channel="music">
			<soundFile fileName="tracks.m3u" playlist="true"/>
		</sound>
	</soundpack>`)

	result, err := Load(dir)
	require.NoError(t, err)
	entry := result.Table.Entries[0]
	require.Len(t, entry.Files, 1)
	assert.True(t, entry.Files[0].Source.Playlist)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.wav"),
		filepath.Join(dir, "b.wav"),
	}, entry.Files[0].Source.Paths)
}

func TestLoadUndecodablePlaylistDropsSoundFileButKeepsRule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pack.xml", `<soundpack>
		<sound logPattern="music starts" channel="music">
			<soundFile fileName="missing.m3u" playlist="true"/>
		</sound>
	</soundpack>`)

	result, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 1, len(result.Table.Entries))
	entry := result.Table.Entries[0]
	assert.Empty(t, entry.Files)
	assert.Empty(t, entry.Weights)
}

func TestLoadVolumeAdjustmentDefaultsToZeroDB(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pack.xml", `<soundpack>
		<sound logPattern="a sound plays">
			<soundFile fileName="x.wav"/>
		</sound>
	</soundpack>`)

	result, err := Load(dir)
	require.NoError(t, err)
	entry := result.Table.Entries[0]
	assert.InDelta(t, soundmodel.VolumeAdjustment(0), entry.Files[0].Amplification, 0.0001)
}

func TestExpandPlaylistParsesPLSFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.wav", "x")
	path := writeFile(t, dir, "tracks.pls", "[playlist]\nFile1=a.wav\nNumberOfEntries=1\n")

	paths, err := expandPlaylist(path)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.wav")}, paths)
}

func TestExpandPlaylistRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tracks.txt", "a.wav\n")

	_, err := expandPlaylist(path)
	assert.Error(t, err)
}

func TestResolveRelativeKeepsAbsolutePaths(t *testing.T) {
	abs := filepath.Join(string(filepath.Separator), "opt", "sounds", "a.wav")
	assert.Equal(t, abs, resolveRelative("/somewhere", abs))
}
