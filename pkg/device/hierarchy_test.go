package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHierarchy = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node index="0" text="" resource-id="" class="android.widget.FrameLayout" package="com.instagram.android" content-desc="" clickable="false" enabled="true" bounds="[0,0][1080,2340]">
    <node index="0" text="somecoach" resource-id="com.instagram.android:id/action_bar_title" class="android.widget.TextView" package="com.instagram.android" content-desc="" clickable="true" enabled="true" bounds="[42,120][400,190]"/>
    <node index="1" text="412" resource-id="com.instagram.android:id/row_profile_header_textview_post_count" class="android.widget.TextView" package="com.instagram.android" content-desc="412 posts" clickable="false" enabled="true" bounds="[60,540][220,600]"/>
    <node index="2" text="" resource-id="com.instagram.android:id/likers_list" class="androidx.recyclerview.widget.RecyclerView" package="com.instagram.android" content-desc="" clickable="false" enabled="true" bounds="[0,650][1080,2200]">
      <node index="0" text="lifter_jane" resource-id="com.instagram.android:id/row_user_username" class="android.widget.TextView" package="com.instagram.android" content-desc="" clickable="true" enabled="true" bounds="[180,700][600,760]"/>
      <node index="1" text="gym.rat.99" resource-id="com.instagram.android:id/row_user_username" class="android.widget.TextView" package="com.instagram.android" content-desc="" clickable="true" enabled="true" bounds="[180,820][600,880]"/>
      <node index="2" text="Load more" resource-id="com.instagram.android:id/row_load_more_button" class="android.widget.Button" package="com.instagram.android" content-desc="Load more results" clickable="true" enabled="true" bounds="[400,2080][680,2160]"/>
    </node>
  </node>
</hierarchy>`

func TestParseBounds(t *testing.T) {
	tests := []struct {
		in   string
		want Bounds
		ok   bool
	}{
		{"[0,0][1080,2340]", Bounds{0, 0, 1080, 2340}, true},
		{"[42,120][400,190]", Bounds{42, 120, 400, 190}, true},
		{"[-10,-5][10,5]", Bounds{-10, -5, 10, 5}, true},
		{"", Bounds{}, false},
		{"[a,b][c,d]", Bounds{}, false},
	}
	for _, tt := range tests {
		got, ok := parseBounds(tt.in)
		assert.Equal(t, tt.ok, ok, "parseBounds(%q)", tt.in)
		assert.Equal(t, tt.want, got, "parseBounds(%q)", tt.in)
	}
}

func TestBoundsGeometry(t *testing.T) {
	b := Bounds{Left: 100, Top: 200, Right: 300, Bottom: 400}
	x, y := b.Center()
	assert.Equal(t, 200, x)
	assert.Equal(t, 300, y)
	assert.Equal(t, 200, b.Width())
	assert.Equal(t, 200, b.Height())
}

func TestParseHierarchy(t *testing.T) {
	h, err := parseHierarchy([]byte(sampleHierarchy))
	require.NoError(t, err)
	require.Len(t, h.Nodes, 1)

	var count int
	h.walk(func(n *uiNode) { count++ })
	assert.Equal(t, 7, count)
}

func TestParseHierarchyMalformed(t *testing.T) {
	_, err := parseHierarchy([]byte("<hierarchy><node"))
	assert.Error(t, err)
}

func TestSelectorMatching(t *testing.T) {
	h, err := parseHierarchy([]byte(sampleHierarchy))
	require.NoError(t, err)

	t.Run("bare resource id", func(t *testing.T) {
		n, ok := h.first(Selector{ResourceID: "action_bar_title"})
		require.True(t, ok)
		assert.Equal(t, "somecoach", n.Text)
	})

	t.Run("qualified resource id", func(t *testing.T) {
		n, ok := h.first(Selector{ResourceID: "com.instagram.android:id/action_bar_title"})
		require.True(t, ok)
		assert.Equal(t, "somecoach", n.Text)
	})

	t.Run("exact text", func(t *testing.T) {
		n, ok := h.first(Selector{Text: "Load more"})
		require.True(t, ok)
		assert.Equal(t, "com.instagram.android:id/row_load_more_button", n.ResourceID)
	})

	t.Run("text contains", func(t *testing.T) {
		_, ok := h.first(Selector{TextContains: "gym.rat"})
		assert.True(t, ok)
	})

	t.Run("desc contains", func(t *testing.T) {
		n, ok := h.first(Selector{DescContains: "more results"})
		require.True(t, ok)
		assert.Equal(t, "Load more", n.Text)
	})

	t.Run("class name", func(t *testing.T) {
		n, ok := h.first(Selector{ClassName: "androidx.recyclerview.widget.RecyclerView"})
		require.True(t, ok)
		assert.Equal(t, "com.instagram.android:id/likers_list", n.ResourceID)
	})

	t.Run("combined criteria", func(t *testing.T) {
		_, ok := h.first(Selector{ResourceID: "row_user_username", Text: "lifter_jane"})
		assert.True(t, ok)
		_, ok = h.first(Selector{ResourceID: "row_user_username", Text: "Load more"})
		assert.False(t, ok)
	})

	t.Run("index picks nth match", func(t *testing.T) {
		n, ok := h.first(Selector{ResourceID: "row_user_username", Index: 1})
		require.True(t, ok)
		assert.Equal(t, "gym.rat.99", n.Text)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, ok := h.first(Selector{ResourceID: "row_user_username", Index: 5})
		assert.False(t, ok)
	})

	t.Run("empty selector matches nothing", func(t *testing.T) {
		assert.Empty(t, h.find(Selector{}))
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := h.first(Selector{ResourceID: "does_not_exist"})
		assert.False(t, ok)
	})
}

func TestFindReturnsDocumentOrder(t *testing.T) {
	h, err := parseHierarchy([]byte(sampleHierarchy))
	require.NoError(t, err)

	nodes := h.find(Selector{ResourceID: "row_user_username"})
	require.Len(t, nodes, 2)
	assert.Equal(t, "lifter_jane", nodes[0].Text)
	assert.Equal(t, "gym.rat.99", nodes[1].Text)
}

func TestSelectorString(t *testing.T) {
	s := Selector{ResourceID: "row_user_username", TextContains: "jane", Index: 1}
	assert.Equal(t, "id=row_user_username text*=jane index=1", s.String())
}
