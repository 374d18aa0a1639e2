package resolver

// Catalog maps user-facing category names to a single "key=value" OSM tag.
// Entries the builtin compound filters cover ("Trash Can", "Public Toilet")
// stay listed here so the category list stays complete; the compound step
// wins during resolution.
var Catalog = map[string]string{
	"Trash Can": "amenity=waste_basket",
	"Public Toilet": "amenity=toilets",
	"Defibrillator (AED)": "emergency=defibrillator",
	"Water Fountain": "amenity=drinking_water",
	"Recycling Bin": "amenity=recycling",
	"ATM": "amenity=atm",
	"Post Box": "amenity=post_box",
	"Bench": "amenity=bench",
	"Surveillance Camera": "man_made=surveillance",
	"Cafe": "amenity=cafe",
	"Restaurant": "amenity=restaurant",
	"Fast Food": "amenity=fast_food",
	"Bar": "amenity=bar",
	"Pub": "amenity=pub",
	"Biergarten": "amenity=biergarten",
	"Food Court": "amenity=food_court",
	"Ice Cream": "amenity=ice_cream",
	"Vending Machine": "amenity=vending_machine",
	"Supermarket": "shop=supermarket",
	"Convenience Store": "shop=convenience",
	"Bakery": "shop=bakery",
	"Department Store": "shop=department_store",
	"General Store": "shop=general",
	"Mall": "shop=mall",
	"Kiosk": "shop=kiosk",
	"Alcohol Shop": "shop=alcohol",
	"Beverage Shop": "shop=beverages",
	"Butcher": "shop=butcher",
	"Cheese Shop": "shop=cheese",
	"Chocolate Shop": "shop=chocolate",
	"Coffee Shop": "shop=coffee",
	"Confectionery": "shop=confectionery",
	"Dairy": "shop=dairy",
	"Deli": "shop=deli",
	"Farm Shop": "shop=farm",
	"Greengrocer": "shop=greengrocer",
	"Health Food": "shop=health_food",
	"Ice Cream Shop": "shop=ice_cream",
	"Pasta Shop": "shop=pasta",
	"Pastry Shop": "shop=pastry",
	"Seafood Shop": "shop=seafood",
	"Spices Shop": "shop=spices",
	"Tea Shop": "shop=tea",
	"Water Shop": "shop=water",
	"Wine Shop": "shop=wine",
	"Antiques": "shop=antiques",
	"Bag Shop": "shop=bag",
	"Baby Goods": "shop=baby_goods",
	"Beauty Shop": "shop=beauty",
	"Bedding Shop": "shop=bed",
	"Book Store": "shop=books",
	"Boutique": "shop=boutique",
	"Camera Shop": "shop=camera",
	"Carpet Shop": "shop=carpet",
	"Charity Shop": "shop=charity",
	"Chemist": "shop=chemist",
	"Clothes Shop": "shop=clothes",
	"Computer Shop": "shop=computer",
	"Cosmetics": "shop=cosmetics",
	"Craft Shop": "shop=craft",
	"Curtain Shop": "shop=curtain",
	"Drugstore": "shop=drugstore",
	"Electronics Store": "shop=electronics",
	"Fabric Shop": "shop=fabric",
	"Florist": "shop=florist",
	"Furniture Store": "shop=furniture",
	"Garden Centre": "shop=garden_centre",
	"Gift Shop": "shop=gift",
	"Hardware Store": "shop=hardware",
	"Hearing Aids": "shop=hearing_aids",
	"Hifi Shop": "shop=hifi",
	"Interior Decoration": "shop=interior_decoration",
	"Jewelry": "shop=jewelry",
	"Kitchen Shop": "shop=kitchen",
	"Lighting Shop": "shop=lighting",
	"Mobile Phone Shop": "shop=mobile_phone",
	"Music Shop": "shop=music",
	"Musical Instrument": "shop=musical_instrument",
	"Newsagent": "shop=newsagent",
	"Optician": "shop=optician",
	"Paint Shop": "shop=paint",
	"Perfume Shop": "shop=perfumery",
	"Pet Shop": "shop=pet",
	"Photo Shop": "shop=photo",
	"Second Hand": "shop=second_hand",
	"Shoe Shop": "shop=shoes",
	"Sports Shop": "shop=sports",
	"Stationery": "shop=stationery",
	"Tailor": "shop=tailor",
	"Tattoo Parlour": "shop=tattoo",
	"Ticket Shop": "shop=ticket",
	"Tobacco Shop": "shop=tobacco",
	"Toy Shop": "shop=toys",
	"Video Games": "shop=video_games",
	"Watches": "shop=watches",
	"Weapons": "shop=weapons",
	"Wholesale": "shop=wholesale",
	"Bicycle Shop": "shop=bicycle",
	"Car Parts": "shop=car_parts",
	"Car Repair": "shop=car_repair",
	"Car Shop": "shop=car",
	"Fuel Station": "amenity=fuel",
	"Tyre Shop": "shop=tyres",
	"Laundry": "shop=laundry",
	"Dry Cleaning": "shop=dry_cleaning",
	"Funeral Directors": "shop=funeral_directors",
	"Hairdresser": "shop=hairdresser",
	"Massage": "shop=massage",
	"Medical Supply": "shop=medical_supply",
	"Money Lender": "shop=money_lender",
	"Pawnbroker": "shop=pawnbroker",
	"Travel Agency": "shop=travel_agency",
	"Vacant Shop": "shop=vacant",
	"Ambulance Station": "emergency=ambulance_station",
	"Defibrillator": "emergency=defibrillator",
	"Fire Hydrant": "emergency=fire_hydrant",
	"Fire Station": "amenity=fire_station",
	"Emergency Phone": "emergency=phone",
	"Police": "amenity=police",
	"Siren": "emergency=siren",
	"Hospital": "amenity=hospital",
	"Lifeguard": "emergency=lifeguard",
	"Assembly Point": "emergency=assembly_point",
	"Clinic": "amenity=clinic",
	"Dentist": "amenity=dentist",
	"Doctors": "amenity=doctors",
	"Pharmacy": "amenity=pharmacy",
	"Veterinary": "amenity=veterinary",
	"Nursing Home": "amenity=nursing_home",
	"Airport": "aeroway=aerodrome",
	"Helipad": "aeroway=helipad",
	"Bus Station": "amenity=bus_station",
	"Bus Stop": "highway=bus_stop",
	"Car Rental": "amenity=car_rental",
	"Car Wash": "amenity=car_wash",
	"EV Charging": "amenity=charging_station",
	"Ferry Terminal": "amenity=ferry_terminal",
	"Parking": "amenity=parking",
	"Bicycle Parking": "amenity=bicycle_parking",
	"Taxi Stand": "amenity=taxi",
	"Train Station": "railway=station",
	"Tram Stop": "railway=tram_stop",
	"Subway Entrance": "railway=subway_entrance",
	"Platform": "railway=platform",
	"Hotel": "tourism=hotel",
	"Motel": "tourism=motel",
	"Hostel": "tourism=hostel",
	"Guest House": "tourism=guest_house",
	"Camp Site": "tourism=camp_site",
	"Caravan Site": "tourism=caravan_site",
	"Chalet": "tourism=chalet",
	"Museum": "tourism=museum",
	"Art Gallery": "tourism=gallery",
	"Attraction": "tourism=attraction",
	"Information": "tourism=information",
	"Picnic Site": "tourism=picnic_site",
	"Viewpoint": "tourism=viewpoint",
	"Zoo": "tourism=zoo",
	"Theme Park": "tourism=theme_park",
	"Water Park": "leisure=water_park",
	"Casino": "amenity=casino",
	"Cinema": "amenity=cinema",
	"Nightclub": "amenity=nightclub",
	"Theatre": "amenity=theatre",
	"Library": "amenity=library",
	"Park": "leisure=park",
	"Playground": "leisure=playground",
	"Golf Course": "leisure=golf_course",
	"Slipway": "leisure=slipway",
	"Swimming Pool": "leisure=swimming_pool",
	"Stadium": "leisure=stadium",
	"Pitch": "leisure=pitch",
	"Dog Park": "leisure=dog_park",
	"Marina": "leisure=marina",
	"Fishing": "leisure=fishing",
	"Sauna": "leisure=sauna",
	"Town Hall": "amenity=townhall",
	"Courthouse": "amenity=courthouse",
	"Prison": "amenity=prison",
	"Embassy": "amenity=embassy",
	"Post Office": "amenity=post_office",
	"Community Centre": "amenity=community_centre",
	"Social Facility": "amenity=social_facility",
	"Marketplace": "amenity=marketplace",
	"Crematorium": "amenity=crematorium",
	"Graveyard": "amenity=graveyard",
	"Cemetery": "landuse=cemetery",
	"College": "amenity=college",
	"Kindergarten": "amenity=kindergarten",
	"School": "amenity=school",
	"University": "amenity=university",
	"Driving School": "amenity=driving_school",
	"Archaeological Site": "historic=archaeological_site",
	"Castle": "historic=castle",
	"Church": "historic=church",
	"City Gate": "historic=city_gate",
	"Fort": "historic=fort",
	"Manor": "historic=manor",
	"Memorial": "historic=memorial",
	"Monument": "historic=monument",
	"Ruins": "historic=ruins",
	"Battlefield": "historic=battlefield",
	"Shipwreck": "historic=wreck",
	"Wayside Cross": "historic=wayside_cross",
	"Wayside Shrine": "historic=wayside_shrine",
	"Cannon": "historic=cannon",
	"Tree": "natural=tree",
	"Peak": "natural=peak",
	"Volcano": "natural=volcano",
	"Cave Entrance": "natural=cave_entrance",
	"Spring": "natural=spring",
	"Beach": "natural=beach",
	"Glacier": "natural=glacier",
	"Cliff": "natural=cliff",
	"Bay": "natural=bay",
	"Wetland": "natural=wetland",
	"Wood": "natural=wood",
	"Scrub": "natural=scrub",
	"Heath": "natural=heath",
	"Grassland": "natural=grassland",
	"Sand": "natural=sand",
	"Rock": "natural=bare_rock",
	"Geyser": "natural=geyser",
	"Hot Spring": "natural=hot_spring",
	"Tower": "man_made=tower",
	"Water Tower": "man_made=water_tower",
	"Lighthouse": "man_made=lighthouse",
	"Windmill": "man_made=windmill",
	"Crane": "man_made=crane",
	"Chimney": "man_made=chimney",
	"Communications Tower": "man_made=communications_tower",
	"Mast": "man_made=mast",
	"Flagpole": "man_made=flagpole",
	"Silo": "man_made=silo",
	"Storage Tank": "man_made=storage_tank",
	"Telescope": "man_made=telescope",
	"Water Well": "man_made=water_well",
	"Pipeline": "man_made=pipeline",
	"Pier": "man_made=pier",
	"Breakwater": "man_made=breakwater",
	"Groyne": "man_made=groyne",
	"Dyke": "man_made=dyke",
	"Adit (Mine Entrance)": "man_made=adit",
	"Mineshaft": "man_made=mineshaft",
	"Kiln": "man_made=kiln",
	"Maypole": "man_made=maypole",
	"Obelisk": "man_made=obelisk",
	"Street Cabinet": "man_made=street_cabinet",
	"Survey Point": "man_made=survey_point",
	"Gate": "barrier=gate",
	"Bollard": "barrier=bollard",
	"Border Control": "barrier=border_control",
	"Cattle Grid": "barrier=cattle_grid",
	"Toll Booth": "barrier=toll_booth",
	"Stile": "barrier=stile",
	"Kissing Gate": "barrier=kissing_gate",
	"Generator": "power=generator",
	"Power Line": "power=line",
	"Power Pole": "power=pole",
	"Power Tower": "power=tower",
	"Transformer": "power=transformer",
	"Substation": "power=substation",
	"Nuclear Power Plant": "power=plant",
	"Water Fall": "waterway=waterfall",
	"Lock Gate": "waterway=lock_gate",
	"Weir": "waterway=weir",
	"Dam": "waterway=dam",
	"Cable Car": "aerialway=cable_car",
	"Gondola": "aerialway=gondola",
	"Chair Lift": "aerialway=chair_lift",
	"Drag Lift": "aerialway=drag_lift",
	"Zip Line": "aerialway=zip_line",
	"Office": "office=yes",
	"Estate Agent": "office=estate_agent",
	"Insurance": "office=insurance",
	"Lawyer": "office=lawyer",
	"IT Office": "office=it",
	"Government Office": "office=government",
	"Employment Agency": "office=employment_agency",
	"NGO": "office=ngo",
	"Coworking Space": "office=coworking",
	"Shoemaker": "craft=shoemaker",
	"Carpenter": "craft=carpenter",
	"Electrician": "craft=electrician",
	"Plumber": "craft=plumber",
	"Photographer": "craft=photographer",
	"Blacksmith": "craft=blacksmith",
	"Brewery": "craft=brewery",
	"Distillery": "craft=distillery",
	"Winery": "craft=winery",
	"Sawmill": "craft=sawmill",
	"Stonemason": "craft=stonemason",
	"Tailor (Craft)": "craft=tailor",
	"Clockmaker": "craft=clockmaker",
	"Key Cutter": "craft=key_cutter",
	"Locksmith": "craft=locksmith",
	"Traffic Signals": "highway=traffic_signals",
	"Crosswalk": "highway=crossing",
	"Street Lamp": "highway=street_lamp",
	"Stop Sign": "highway=stop",
	"Speed Camera": "highway=speed_camera",
	"Milestone": "highway=milestone",
	"Bunker": "military=bunker",
	"Barracks": "military=barracks",
	"Place of Worship": "amenity=place_of_worship",
	"Cathedral": "building=cathedral",
	"Chapel": "building=chapel",
	"Mosque": "building=mosque",
	"Synagogue": "building=synagogue",
	"Temple": "building=temple",
}

// QuickAccess is the short list of categories offered up front, before the
// user reaches for the full catalog or a custom search.
var QuickAccess = []string{
	"Trash Can",
	"Public Toilet",
	"Defibrillator (AED)",
	"Water Fountain",
	"Recycling Bin",
	"ATM",
	"Post Box",
	"Bench",
}
