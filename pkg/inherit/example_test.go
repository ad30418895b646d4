package inherit_test

import (
	"fmt"

	"github.com/openfroyo/strata/pkg/inherit"
)

// Example demonstrates the basic fallback chain: explicit value, inherited
// value, declared default.
func Example() {
	s := inherit.NewSchema()
	fontSize := inherit.Declare(s, "fontSize", 12)

	base := inherit.NewNode(s)
	fmt.Println(fontSize.Get(base))

	fontSize.Set(base, 14)
	profile := base.CreateChild()
	fmt.Println(fontSize.Get(profile))

	fontSize.Set(profile, 10)
	fmt.Println(fontSize.Get(profile), fontSize.Get(base))

	fontSize.Clear(profile)
	fmt.Println(fontSize.Get(profile))

	// Output:
	// 12
	// 14
	// 10 14
	// 14
}

// ExampleNullableKey shows that an explicit null on a nullable setting is a
// terminal resolution rather than a fallback trigger.
func ExampleNullableKey() {
	s := inherit.NewSchema()
	background := inherit.DeclareNullable[string](s, "background", nil)

	base := inherit.NewNode(s)
	color := "#0C0C0C"
	background.Set(base, &color)

	profile := base.CreateChild()
	if v := background.Get(profile); v != nil {
		fmt.Println("inherited:", *v)
	}

	background.Set(profile, nil)
	fmt.Println("explicit null:", background.Get(profile) == nil, "has:", background.Has(profile))

	// Output:
	// inherited: #0C0C0C
	// explicit null: true has: true
}

// ExampleNode_Explain resolves a setting and reports which layer supplied it.
func ExampleNode_Explain() {
	s := inherit.NewSchema()
	scheme := inherit.Declare(s, "colorScheme", "Campbell")

	defaults := inherit.NewNode(s)
	defaults.SetName("defaults")
	scheme.Set(defaults, "One Half Dark")

	profile := defaults.CreateChild()
	profile.SetName("profile")

	res, _ := profile.Explain("colorScheme")
	fmt.Printf("%v from %s (%s, depth %d)\n", res.Value, res.SourceName, res.Origin, res.Depth)

	// Output:
	// One Half Dark from defaults (inherited, depth 1)
}
