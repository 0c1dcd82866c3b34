package rules

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertBot/internal/domain"
)

func TestRegister_AliasesShareRule(t *testing.T) {
	reg := NewRegistry()
	rule := &domain.Rule{Kind: domain.RuleCounter, Name: "!death", Aliases: []string{"!rip", "!Died"}}
	require.NoError(t, reg.Register(rule))

	for _, key := range []string{"!death", "!RIP", "!died"} {
		got, ok := reg.Counter(key)
		require.True(t, ok, key)
		assert.Same(t, rule, got, key)
	}
	assert.Len(t, reg.Counters(), 1)
}

func TestRegister_CommandLookupIsCaseInsensitive(t *testing.T) {
	reg := NewRegistry()
	rule := &domain.Rule{Kind: domain.RuleCommand, Name: "!Hug", Aliases: []string{"!cuddle"}}
	require.NoError(t, reg.Register(rule))

	cmd, ok := reg.Command("!HUG")
	require.True(t, ok)
	static, ok := cmd.(StaticCommand)
	require.True(t, ok)
	assert.Same(t, rule, static.Rule)

	_, ok = reg.Command("!hugs")
	assert.False(t, ok)
}

func TestRegister_RejectsNameless(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(&domain.Rule{Kind: domain.RuleCommand, Name: "  "})
	assert.ErrorIs(t, err, domain.ErrMalformedRule)
	assert.Error(t, reg.Register(nil))
}

func TestRegister_RaidGreetingIndexes(t *testing.T) {
	reg := NewRegistry()
	owned := &domain.Rule{Kind: domain.RuleRaidGreeting, Name: "!friend", OwnerUsername: "Friend", Invocable: true}
	fallback := &domain.Rule{Kind: domain.RuleRaidGreeting, Name: "generic", IsDefaultCandidate: true, MinViewers: 5}
	require.NoError(t, reg.Register(owned))
	require.NoError(t, reg.Register(fallback))

	got, ok := reg.RaidOwner("friend")
	require.True(t, ok)
	assert.Same(t, owned, got)

	cmd, ok := reg.Command("!friend")
	require.True(t, ok)
	assert.Same(t, owned, cmd.(StaticCommand).Rule)

	_, ok = reg.Command("generic")
	assert.False(t, ok)
	assert.Equal(t, []*domain.Rule{fallback}, reg.DefaultRaidGreetings())
}

func TestRegisterDynamic_OverridesStaticRule(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&domain.Rule{Kind: domain.RuleCommand, Name: "!raid"}))
	reg.RegisterDynamic("!raid", func(domain.Invocation) (domain.Outcome, bool) { return domain.Outcome{}, true })

	cmd, ok := reg.Command("!raid")
	require.True(t, ok)
	_, dynamic := cmd.(DynamicCommand)
	assert.True(t, dynamic)
	assert.Empty(t, reg.Commands())
}

func TestNames_SortedAndUnique(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&domain.Rule{Kind: domain.RuleCommand, Name: "!b", Aliases: []string{"!bee"}}))
	require.NoError(t, reg.Register(&domain.Rule{Kind: domain.RuleCounter, Name: "!a"}))
	reg.RegisterDynamic("!set", nil)

	assert.Equal(t, []string{"!a", "!b", "!set"}, reg.Names())
}

func TestService_ListIncludesBuiltinsAndRules(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&domain.Rule{Kind: domain.RuleCounter, Name: "!death", Value: 4}))

	list, err := NewService(reg).List(t.Context())
	require.NoError(t, err)
	require.Len(t, list, len(BuiltinCommandCatalog())+1)

	last := list[len(list)-1]
	assert.Equal(t, "!death", last.Name)
	assert.Equal(t, RuleSourceFile, last.Source)
	require.NotNil(t, last.Value)
	assert.EqualValues(t, 4, *last.Value)
}

func TestService_CountersComeFromSnapshots(t *testing.T) {
	reg := NewRegistry()
	death := &domain.Rule{Kind: domain.RuleCounter, Name: "!death", Value: 4}
	require.NoError(t, reg.Register(death))
	svc := NewService(reg)

	value := func() int64 {
		list, err := svc.List(t.Context())
		require.NoError(t, err)
		last := list[len(list)-1]
		require.NotNil(t, last.Value)
		return *last.Value
	}

	// el consumidor es dueño de la regla; el servicio no la vuelve a leer
	death.Value = 9
	assert.EqualValues(t, 4, value())

	svc.ObserveCounters(map[string]int64{"!death": 9, "!unknown": 1})
	assert.EqualValues(t, 9, value())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 100 {
			svc.ObserveCounters(map[string]int64{"!death": int64(10 + i)})
		}
	}()
	go func() {
		defer wg.Done()
		for range 100 {
			_, _ = svc.List(t.Context())
		}
	}()
	wg.Wait()
	assert.EqualValues(t, 109, value())
}

func TestPingCommand(t *testing.T) {
	out, ok := NewPingCommand().Handle(domain.Invocation{Actor: domain.Actor{Username: "ana"}, Key: "!ping"})
	require.True(t, ok)
	assert.Equal(t, []domain.ChatReply{{Text: "pong @ana"}}, out.Replies())

	_, ok = NewPingCommand().Handle(domain.Invocation{Key: "!pong"})
	assert.False(t, ok)
}
